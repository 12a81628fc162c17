package realm

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"
)

// Connector performs a single realm-list authentication round trip: dial,
// run the five-step logon handshake, request the realm list, and return
// it. It does not retry; the caller's reconnect loop owns backoff.
type Connector struct {
	Address  string
	Account  string
	Password string
	Logger   *slog.Logger
	Dialer   net.Dialer
}

// Result is everything the world-session connector needs to continue:
// the chosen realm and the 40-byte session key the game server expects
// in CMSG_AUTH_SESSION.
type Result struct {
	Realms     []Info
	SessionKey [40]byte
}

// Authenticate dials the realm server, runs the handshake, and fetches
// the realm list. The connection is closed before returning.
func (c *Connector) Authenticate(ctx context.Context) (*Result, error) {
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}

	h, err := New(c.Account, c.Password)
	if err != nil {
		return nil, fmt.Errorf("realm: building handshake state: %w", err)
	}

	dialer := c.Dialer
	if dialer.Timeout == 0 {
		dialer.Timeout = 15 * time.Second
	}
	log.Info("dialing realm server", slog.String("address", c.Address))
	conn, err := dialer.DialContext(ctx, "tcp", c.Address)
	if err != nil {
		return nil, fmt.Errorf("realm: dialing %s: %w", c.Address, err)
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		conn.SetDeadline(dl)
	}

	r := bufio.NewReader(conn)

	challenge, err := h.BuildLogonChallenge()
	if err != nil {
		return nil, fmt.Errorf("realm: building logon challenge: %w", err)
	}
	if _, err := conn.Write(challenge); err != nil {
		return nil, fmt.Errorf("realm: sending logon challenge: %w", err)
	}

	challengeResp, err := readSizedResponse(r, 2, 1)
	if err != nil {
		return nil, fmt.Errorf("realm: reading logon challenge response: %w", err)
	}
	if err := h.HandleLogonChallengeResponse(challengeResp); err != nil {
		return nil, err
	}
	log.Debug("logon challenge accepted")

	proof := h.BuildLogonProof()
	if _, err := conn.Write(proof); err != nil {
		return nil, fmt.Errorf("realm: sending logon proof: %w", err)
	}

	proofResp, err := readFixed(r, 2)
	if err != nil {
		return nil, fmt.Errorf("realm: reading logon proof response: %w", err)
	}
	tail, err := readFixed(r, proofResponseTrailerLen(proofResp))
	if err != nil {
		return nil, fmt.Errorf("realm: reading logon proof trailer: %w", err)
	}
	if err := h.HandleLogonProofResponse(append(proofResp, tail...)); err != nil {
		return nil, err
	}
	log.Info("realm logon accepted")

	listReq := h.BuildRealmListRequest()
	if _, err := conn.Write(listReq); err != nil {
		return nil, fmt.Errorf("realm: sending realm list request: %w", err)
	}

	listResp, err := readSizedResponse(r, 1, 2)
	if err != nil {
		return nil, fmt.Errorf("realm: reading realm list response: %w", err)
	}
	realms, err := h.HandleRealmListResponse(listResp)
	if err != nil {
		return nil, err
	}
	log.Info("realm list received", slog.Int("count", len(realms)))

	return &Result{Realms: realms, SessionKey: h.SessionKey()}, nil
}

// proofResponseTrailerLen reports how many bytes follow the 2-byte
// opcode+status header of an AUTH_LOGON_PROOF response: 32 bytes of
// server proof on success, 0 on failure (the server closes the
// connection instead of padding a failure reply).
func proofResponseTrailerLen(header []byte) int {
	if len(header) >= 2 && header[1] == byte(AuthSuccess) {
		return 32
	}
	return 0
}

// readSizedResponse reads opcodeLen bytes of opcode/status followed by a
// little-endian size field of sizeLen bytes giving the remaining payload
// length, and returns the full response (opcode+size+payload).
func readSizedResponse(r *bufio.Reader, opcodeLen, sizeLen int) ([]byte, error) {
	head := make([]byte, opcodeLen+sizeLen)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var size int
	switch sizeLen {
	case 1:
		size = int(head[opcodeLen])
	case 2:
		size = int(binary.LittleEndian.Uint16(head[opcodeLen:]))
	default:
		return nil, fmt.Errorf("unsupported size field length %d", sizeLen)
	}

	body := make([]byte, size)
	if size > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("reading body of %d bytes: %w", size, err)
		}
	}
	return append(head, body...), nil
}

func readFixed(r *bufio.Reader, n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
