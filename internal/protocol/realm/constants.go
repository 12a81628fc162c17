package realm

import "encoding/hex"

// Cryptographic constants for the realm-list logon handshake of the
// targeted wire variant. These are fixed, publicly known values baked
// into the reference client; they are not secrets.
var (
	keyConstant1   = mustHex("3642af852369154cfa1145950880108280a4341c26a376431b741e2aae9c2948")
	keyConstant2   = mustHex("33ba3128ee614b5845e06b0dad176a9c79344dd7a7a1e2e8d8ad097da9b57f01")
	keyConstant3   = mustHex("66d52b01e006cd246f090025d6312c62d13e847c9805956a1c5a10364baa7d82")
	nonceConstant2 = mustHex("9201008ecafa7d60e0acc81e")
	inputConstant4 = mustHex("e815739f8ec810721b93554ca2eac597e05f375261dd72ff30837df951c7a5ed")
	inputConstant5 = mustHex("26986c8a73d24bc41cf386bcb58492416fb579784e1957701a889d97b6550140")
	inputConstant6 = []byte("OK")

	versionString = []byte("1|1|DD541D7D87F3A757680395DD1BB309CC8A27D23F695307F3103BD5E283C57C92")
)

const (
	xorMask    byte   = 0xED
	headerMagic uint32 = 0xFCF4F4E6

	opLogonChallenge byte = 0x00
	opLogonProof     byte = 0x01
	opRealmList      byte = 0x10
)

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic("realm: invalid constant hex literal: " + err.Error())
	}
	return b
}
