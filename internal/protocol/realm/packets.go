package realm

import "fmt"

// AuthResult is the realm-list logon result-code taxonomy (§6 of the
// wire-protocol reference).
type AuthResult uint8

const (
	AuthSuccess               AuthResult = 0x00
	AuthFailBanned            AuthResult = 0x03
	AuthFailUnknownAccount    AuthResult = 0x04
	AuthFailIncorrectPassword AuthResult = 0x05
	AuthFailAlreadyOnline     AuthResult = 0x06
	AuthFailNoTime            AuthResult = 0x07
	AuthFailDbBusy            AuthResult = 0x08
	AuthFailVersionInvalid    AuthResult = 0x09
	AuthFailVersionUpdate     AuthResult = 0x0A
	AuthFailSuspended         AuthResult = 0x0C
	AuthFailTrialEnded        AuthResult = 0x0E
)

var authResultName = map[AuthResult]string{
	AuthSuccess: "Success", AuthFailBanned: "Banned", AuthFailUnknownAccount: "UnknownAccount",
	AuthFailIncorrectPassword: "IncorrectPassword", AuthFailAlreadyOnline: "AlreadyOnline",
	AuthFailNoTime: "NoTime", AuthFailDbBusy: "DbBusy", AuthFailVersionInvalid: "VersionInvalid",
	AuthFailVersionUpdate: "VersionUpdate", AuthFailSuspended: "Suspended", AuthFailTrialEnded: "TrialEnded",
}

func (r AuthResult) String() string {
	if s, ok := authResultName[r]; ok {
		return s
	}
	return fmt.Sprintf("Unknown(%#02x)", uint8(r))
}

// Retryable reports whether the game-session loop should reconnect after
// this result, versus exiting the process (terminal account-level
// failures per §7's ProtocolError.AuthFailed policy).
func (r AuthResult) Retryable() bool {
	switch r {
	case AuthFailUnknownAccount, AuthFailIncorrectPassword, AuthFailBanned, AuthFailSuspended:
		return false
	default:
		return true
	}
}

// Info describes one realm from a REALM_LIST response.
type Info struct {
	ID         uint8
	Name       string
	Address    string
	Type       uint8
	Flags      uint8
	Characters uint8
}
