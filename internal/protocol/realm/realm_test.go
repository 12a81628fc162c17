package realm

import (
	"crypto/hmac"
	"testing"
)

func TestNewDerivesConsistentKeys(t *testing.T) {
	h, err := New("myaccount", "hunter2")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if h.account != "MYACCOUNT" {
		t.Fatalf("account not upper-cased: %q", h.account)
	}
	var zero [32]byte
	if h.keyDerived == zero {
		t.Fatalf("keyDerived was not populated")
	}
	if h.keySession == ([40]byte{}) {
		t.Fatalf("keySession was not populated")
	}
}

func TestBuildLogonChallengeProducesNonEmptyFrame(t *testing.T) {
	h, err := New("acct", "pw")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	frame, err := h.BuildLogonChallenge()
	if err != nil {
		t.Fatalf("BuildLogonChallenge: %v", err)
	}
	if len(frame) < 8+16 {
		t.Fatalf("frame too short: %d bytes", len(frame))
	}
	if frame[0] != opLogonChallenge {
		t.Fatalf("opcode = %#02x", frame[0])
	}
}

func TestHandleLogonChallengeResponseRejectsFailure(t *testing.T) {
	h, _ := New("acct", "pw")
	resp := []byte{opLogonChallenge, 0x00, byte(AuthFailIncorrectPassword)}
	if err := h.HandleLogonChallengeResponse(resp); err == nil {
		t.Fatalf("expected error for incorrect-password result")
	}
}

func TestHandleLogonChallengeResponseAcceptsSuccess(t *testing.T) {
	h, _ := New("acct", "pw")
	resp := []byte{opLogonChallenge, 0x00, byte(AuthSuccess)}
	if err := h.HandleLogonChallengeResponse(resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHandleLogonProofResponseChecksServerProof(t *testing.T) {
	h, _ := New("acct", "pw")

	ok := append([]byte{opLogonProof, byte(AuthSuccess)}, h.proof2[:]...)
	if err := h.HandleLogonProofResponse(ok); err != nil {
		t.Fatalf("expected matching proof to pass: %v", err)
	}

	var wrongProof [32]byte
	copy(wrongProof[:], h.proof2[:])
	wrongProof[0] ^= 0xFF
	bad := append([]byte{opLogonProof, byte(AuthSuccess)}, wrongProof[:]...)
	if err := h.HandleLogonProofResponse(bad); err == nil {
		t.Fatalf("expected mismatched proof to fail")
	}
}

func TestHandleRealmListResponseParsesRealms(t *testing.T) {
	h, _ := New("acct", "pw")

	var body []byte
	body = append(body, 0, 0, 0, 0) // unknown u32
	body = append(body, 2)          // realm count

	body = append(body, 1, 0, 0, 0, 0x00) // type, flags
	body = append(body, "Ascension\x00"...)
	body = append(body, "127.0.0.1:8085\x00"...)
	body = append(body, 0, 0, 0, 0, 12, 0, 3) // population pad, characters, timezone, id

	body = append(body, 1, 0, 0, 0, 0x00)
	body = append(body, "Frostmourne\x00"...)
	body = append(body, "127.0.0.1:8086\x00"...)
	body = append(body, 0, 0, 0, 0, 40, 0, 7)

	size := uint16(len(body))
	packet := append([]byte{opRealmList, byte(size), byte(size >> 8)}, body...)

	realms, err := h.HandleRealmListResponse(packet)
	if err != nil {
		t.Fatalf("HandleRealmListResponse: %v", err)
	}
	if len(realms) != 2 {
		t.Fatalf("got %d realms, want 2", len(realms))
	}
	if realms[0].Name != "Ascension" || realms[0].ID != 3 || realms[0].Characters != 12 {
		t.Fatalf("realm[0] = %+v", realms[0])
	}
	if realms[1].Name != "Frostmourne" || realms[1].ID != 7 || realms[1].Characters != 40 {
		t.Fatalf("realm[1] = %+v", realms[1])
	}
}

func TestAuthResultRetryable(t *testing.T) {
	if AuthFailIncorrectPassword.Retryable() {
		t.Fatalf("incorrect password should not be retryable")
	}
	if AuthFailBanned.Retryable() {
		t.Fatalf("banned should not be retryable")
	}
	if !AuthFailDbBusy.Retryable() {
		t.Fatalf("db busy should be retryable")
	}
}

func TestAuthResultString(t *testing.T) {
	if AuthFailIncorrectPassword.String() != "IncorrectPassword" {
		t.Fatalf("String() = %q", AuthFailIncorrectPassword.String())
	}
	if got := AuthResult(0x7F).String(); got != "Unknown(0x7f)" {
		t.Fatalf("String() for unknown = %q", got)
	}
}

func TestDeriveKeyIsDeterministic(t *testing.T) {
	key := []byte("shared-secret-material-32-bytes")
	a := deriveKey(key, inputConstant4, keyConstant3, 32)
	b := deriveKey(key, inputConstant4, keyConstant3, 32)
	if !hmac.Equal(a, b) {
		t.Fatalf("deriveKey is not deterministic")
	}
	long := deriveKey(key, inputConstant5, keyConstant3, 40)
	if len(long) != 40 {
		t.Fatalf("len(long) = %d, want 40", len(long))
	}
}
