// Package world implements the world-server session state machine: the
// post-realm handshake (auth challenge/session/response), character
// selection, and the keepalive/time-sync traffic that keeps a session
// alive once InWorld. It drives internal/protocol/wire's codec over a
// live TCP connection.
package world

// Opcode is a world-server protocol opcode (little-endian on the wire,
// carried here as the targeted variant's widened 32-bit opcode space
// truncated to the 16 bits this codec actually puts on the wire).
type Opcode uint16

const (
	SMSGAuthChallenge  Opcode = 0x1EC
	CMSGAuthSession    Opcode = 0x1ED
	SMSGAuthResponse   Opcode = 0x1EE
	CMSGCharEnum       Opcode = 0x37
	SMSGCharEnum       Opcode = 0x3B
	CMSGPlayerLogin    Opcode = 0x3D
	SMSGLoginVerifyWorld Opcode = 0x236
	SMSGCharacterLoginFailed Opcode = 0x41

	CMSGPing    Opcode = 0x1DC
	SMSGPong    Opcode = 0x1DD
	SMSGInitWorldStates Opcode = 0x2C9

	SMSGTimeSyncReq  Opcode = 0x390
	CMSGTimeSyncResp Opcode = 0x391

	CMSGJoinChannel Opcode = 0x97
	CMSGLeaveChannel Opcode = 0x98

	CMSGGuildQuery    Opcode = 0x54
	SMSGGuildQuery    Opcode = 0x55
	CMSGGuildRoster   Opcode = 0x89
	SMSGGuildRoster   Opcode = 0x8A
	SMSGGuildEvent    Opcode = 0x92
	CMSGGuildMotd     Opcode = 0x7A

	SMSGMessageChat   Opcode = 0x96
	CMSGMessageChat   Opcode = 0x95
	SMSGGMMessageChat Opcode = 0x3F1

	CMSGNameQuery  Opcode = 0x50
	SMSGNameQuery  Opcode = 0x51

	SMSGUpdateObject Opcode = 0xA9
	SMSGDestroyObject Opcode = 0xAA

	SMSGInvalidatePlayer Opcode = 0x4A9

	CMSGStandStateChange Opcode = 0x13D
	CMSGGameobjUse       Opcode = 0xB1
)

// AuthResponseCode is the status byte in SMSG_AUTH_RESPONSE.
type AuthResponseCode uint8

const (
	AuthResponseOK            AuthResponseCode = 0x0C
	AuthResponseFailedBanned  AuthResponseCode = 0x0D
	AuthResponseFailedVersion AuthResponseCode = 0x09
	AuthResponseWaitQueue     AuthResponseCode = 0x1F
)
