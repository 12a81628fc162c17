package realm

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
)

// Handler drives the five-step realm-list logon handshake and holds the
// cryptographic state it derives along the way. One Handler is used for
// exactly one handshake attempt.
type Handler struct {
	account  string
	password string

	privateKey [32]byte
	publicKey  [32]byte

	keyDerived [32]byte
	keySession [40]byte
	proof2     [32]byte
	nonce      [12]byte
}

// New creates a handler for one logon attempt: it generates an ephemeral
// X25519 keypair, derives the session subkeys from the shared secret with
// the server's well-known public key, and precomputes the expected
// server proof.
func New(account, password string) (*Handler, error) {
	h := &Handler{
		account:  upperASCII(account),
		password: upperASCII(password),
	}

	if _, err := rand.Read(h.privateKey[:]); err != nil {
		return nil, fmt.Errorf("realm: generating ephemeral key: %w", err)
	}
	pub, err := curve25519.X25519(h.privateKey[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("realm: deriving public key: %w", err)
	}
	copy(h.publicKey[:], pub)

	shared, err := curve25519.X25519(h.privateKey[:], keyConstant1)
	if err != nil {
		return nil, fmt.Errorf("realm: computing shared secret: %w", err)
	}

	derived := deriveKey(shared, inputConstant4, keyConstant3, 32)
	copy(h.keyDerived[:], derived)

	session := deriveKey(shared, inputConstant5, keyConstant3, 40)
	copy(h.keySession[:], session)

	copy(h.proof2[:], hmacSHA256(h.keyDerived[:], inputConstant6))

	if _, err := rand.Read(h.nonce[:]); err != nil {
		return nil, fmt.Errorf("realm: generating nonce: %w", err)
	}

	return h, nil
}

// SessionKey returns the 40-byte session key used for the game-server
// handshake.
func (h *Handler) SessionKey() [40]byte { return h.keySession }

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// deriveKey is the HKDF-like construction used by this wire variant:
// interim = HMAC(key, input1); out1 = HMAC(interim, input2‖0x01); if size
// exceeds 32 bytes, extend with out2 = HMAC(interim, out1‖input2‖0x02).
func deriveKey(key, input1, input2 []byte, size int) []byte {
	interim := hmacSHA256(key, input1)

	data1 := append(append([]byte{}, input2...), 0x01)
	out1 := hmacSHA256(interim, data1)
	if size <= 32 {
		return out1[:size]
	}

	data2 := append(append([]byte{}, out1...), input2...)
	data2 = append(data2, 0x02)
	out2 := hmacSHA256(interim, data2)

	out := append(append([]byte{}, out1...), out2...)
	return out[:size]
}

// BuildLogonChallenge assembles and encrypts the AUTH_LOGON_CHALLENGE
// packet.
func (h *Handler) BuildLogonChallenge() ([]byte, error) {
	aead, err := chacha20poly1305.New(h.keyDerived[:])
	if err != nil {
		return nil, fmt.Errorf("realm: password cipher: %w", err)
	}
	passwordBytes := []byte(h.password)
	encryptedPassword := aead.Seal(nil, h.nonce[:], passwordBytes, nil)
	passwordCiphertext := encryptedPassword[:len(passwordBytes)]
	passwordTag := encryptedPassword[len(passwordBytes):]

	var versionBuf [256]byte
	n := copy(versionBuf[:], versionString)
	_ = n

	data1 := make([]byte, 0, 605+len(passwordBytes))
	data1 = append(data1, versionBuf[:]...)
	data1 = append(data1, "WoW\x00"...)
	data1 = append(data1, 3, 3, 5) // 3.3.5
	data1 = appendU16LE(data1, 12340)
	data1 = append(data1, "68x\x00"...)
	data1 = append(data1, "niW\x00"...)
	data1 = append(data1, "SUne"...)
	data1 = appendI32LE(data1, 180)
	data1 = append(data1, 127, 0, 0, 1)

	var accountBuf [256]byte
	copy(accountBuf[:], h.account)
	data1 = append(data1, accountBuf[:]...)

	data1 = append(data1, h.publicKey[:]...)
	data1 = append(data1, h.nonce[:]...)
	data1 = append(data1, passwordTag...)
	data1 = appendU32LE(data1, uint32(len(passwordBytes)))
	data1 = append(data1, passwordCiphertext...)

	payloadSize := len(data1) + 16
	header := make([]byte, 8)
	header[0] = opLogonChallenge
	header[1] = 8
	header[2] = byte(payloadSize)
	header[3] = byte(payloadSize >> 8)
	header[4] = byte(headerMagic)
	header[5] = byte(headerMagic >> 8)
	header[6] = byte(headerMagic >> 16)
	header[7] = byte(headerMagic >> 24)

	toEncrypt := data1[:len(data1)-4]
	tail := data1[len(data1)-4:]

	outerAEAD, err := chacha20poly1305.New(keyConstant2)
	if err != nil {
		return nil, fmt.Errorf("realm: outer cipher: %w", err)
	}
	encrypted := outerAEAD.Seal(nil, nonceConstant2, toEncrypt, header)
	tagStart := len(encrypted) - 16
	encryptedData := encrypted[:tagStart]
	outerTag := encrypted[tagStart:]

	xored := make([]byte, len(encryptedData))
	for i, b := range encryptedData {
		xored[i] = b ^ xorMask
	}

	packet := make([]byte, 0, len(header)+16+len(xored)+4)
	packet = append(packet, header...)
	packet = append(packet, outerTag...)
	packet = append(packet, xored...)
	packet = append(packet, tail...)
	return packet, nil
}

// HandleLogonChallengeResponse validates the server's AUTH_LOGON_CHALLENGE
// reply: opcode, status, and the two-factor security flag.
func (h *Handler) HandleLogonChallengeResponse(data []byte) error {
	if len(data) < 3 {
		return fmt.Errorf("realm: challenge response too short: need 3, got %d", len(data))
	}
	if data[0] != opLogonChallenge {
		return fmt.Errorf("realm: unexpected opcode %#02x, want %#02x", data[0], opLogonChallenge)
	}
	result := AuthResult(data[2])
	if result != AuthSuccess {
		return fmt.Errorf("realm: auth failed: %s", result)
	}
	if len(data) >= 118 {
		if securityFlag := data[len(data)-1]; securityFlag != 0 {
			return fmt.Errorf("realm: auth failed: two-factor authentication required")
		}
	}
	return nil
}

// BuildLogonProof builds the all-zero AUTH_LOGON_PROOF packet this wire
// variant expects.
func (h *Handler) BuildLogonProof() []byte {
	packet := make([]byte, 0, 75)
	packet = append(packet, opLogonProof)
	packet = append(packet, make([]byte, 32)...) // A
	packet = append(packet, make([]byte, 20)...) // M1
	packet = append(packet, make([]byte, 20)...) // CRC
	packet = append(packet, 0)                   // key_count
	packet = append(packet, 0)                   // security_flags
	return packet
}

// HandleLogonProofResponse validates the server's AUTH_LOGON_PROOF reply
// and checks the server proof against the precomputed value.
func (h *Handler) HandleLogonProofResponse(data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("realm: proof response too short: need 2, got %d", len(data))
	}
	if data[0] != opLogonProof {
		return fmt.Errorf("realm: unexpected opcode %#02x, want %#02x", data[0], opLogonProof)
	}
	result := AuthResult(data[1])
	if result != AuthSuccess {
		return fmt.Errorf("realm: auth failed: %s", result)
	}
	if len(data) >= 34 {
		if !hmac.Equal(data[2:34], h.proof2[:]) {
			return fmt.Errorf("realm: auth failed: server proof mismatch")
		}
	}
	return nil
}

// BuildRealmListRequest builds the REALM_LIST request packet.
func (h *Handler) BuildRealmListRequest() []byte {
	packet := make([]byte, 5)
	packet[0] = opRealmList
	return packet
}

// HandleRealmListResponse parses the REALM_LIST response into the list of
// advertised realms.
func (h *Handler) HandleRealmListResponse(data []byte) ([]Info, error) {
	if len(data) < 7 {
		return nil, fmt.Errorf("realm: realm list response too short: need 7, got %d", len(data))
	}
	buf := data
	opcode := buf[0]
	if opcode != opRealmList {
		return nil, fmt.Errorf("realm: unexpected opcode %#02x, want %#02x", opcode, opRealmList)
	}
	buf = buf[1:]
	buf = buf[2:] // size u16 LE, unused
	buf = buf[4:] // unknown u32 LE
	if len(buf) < 1 {
		return nil, fmt.Errorf("realm: realm list response missing count byte")
	}
	realmCount := int(buf[0])
	buf = buf[1:]

	realms := make([]Info, 0, realmCount)
	for i := 0; i < realmCount; i++ {
		if len(buf) < 5 {
			break
		}
		realmType := buf[0]
		flags := buf[4]
		buf = buf[5:]

		name, n, err := readCString(buf)
		if err != nil {
			return nil, fmt.Errorf("realm: realm[%d] name: %w", i, err)
		}
		buf = buf[n:]

		address, n, err := readCString(buf)
		if err != nil {
			return nil, fmt.Errorf("realm: realm[%d] address: %w", i, err)
		}
		buf = buf[n:]

		if len(buf) < 7 {
			break
		}
		characters := buf[4]
		id := buf[6]
		buf = buf[7:]

		realms = append(realms, Info{
			ID: id, Name: name, Address: address,
			Type: realmType, Flags: flags, Characters: characters,
		})
	}
	return realms, nil
}

func readCString(buf []byte) (string, int, error) {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i]), i + 1, nil
		}
	}
	return "", 0, fmt.Errorf("unterminated string")
}

func appendU16LE(buf []byte, v uint16) []byte {
	return append(buf, byte(v), byte(v>>8))
}

func appendU32LE(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func appendI32LE(buf []byte, v int32) []byte {
	return appendU32LE(buf, uint32(v))
}
