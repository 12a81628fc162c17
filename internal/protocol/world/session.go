package world

import (
	"context"
	"crypto/rand"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/innkeeper-bridge/innkeeper/internal/protocol/wire"
)

// State is a position in the world-session handshake state machine.
type State int

const (
	StateGreeting State = iota
	StateAuthing
	StateWaitAuth
	StateCharSelect
	StateLoggingIn
	StateInWorld
)

func (s State) String() string {
	switch s {
	case StateGreeting:
		return "Greeting"
	case StateAuthing:
		return "Authing"
	case StateWaitAuth:
		return "WaitAuth"
	case StateCharSelect:
		return "CharSelect"
	case StateLoggingIn:
		return "LoggingIn"
	case StateInWorld:
		return "InWorld"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Character is one entry from SMSG_CHAR_ENUM.
type Character struct {
	GUID  uint64
	Name  string
	Race  uint8
	Class uint8
}

// Session drives one world-server connection from TCP dial through the
// InWorld steady state. Callers read decoded frames via Frames() and
// submit outbound frames via the session's Send methods; Run owns the
// connection's lifetime and closes Frames() when it returns.
type Session struct {
	conn       net.Conn
	codec      *wire.Codec
	log        *slog.Logger
	account    string
	sessionKey []byte
	character  string

	state State
	buf    []byte
	frames chan Frame

	characters []Character

	lastKeepalive time.Time
	connectedAt   time.Time
}

// Frame is a decoded world-server packet handed to the caller for
// higher-level decoding (chat, guild, object-update, ...).
type Frame struct {
	Opcode  Opcode
	Payload []byte
}

// NewSession wraps an already-dialed connection. account must match the
// realm-list logon account; sessionKey is the 40-byte key produced by
// realm.Handler.SessionKey, and character is the name to auto-select
// from SMSG_CHAR_ENUM once available.
func NewSession(conn net.Conn, account string, sessionKey []byte, character string, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		conn:       conn,
		codec:      wire.NewCodec(),
		log:        log,
		account:    account,
		sessionKey: sessionKey,
		character:  character,
		state:      StateGreeting,
		frames:     make(chan Frame, 64),
	}
}

// Frames returns the channel of decoded application-level frames (i.e.
// everything past the auth/char-select handshake, which Run consumes
// internally).
func (s *Session) Frames() <-chan Frame { return s.frames }

// State reports the session's current handshake position.
func (s *Session) State() State { return s.state }

// Characters returns the roster received in SMSG_CHAR_ENUM, valid once
// the session has reached StateCharSelect or later.
func (s *Session) Characters() []Character { return s.characters }

// Run drives the connection until ctx is cancelled or the connection
// closes, handling the auth/char-select/login handshake internally and
// forwarding every later frame on Frames().
func (s *Session) Run(ctx context.Context) error {
	defer close(s.frames)
	s.connectedAt = time.Now()

	readErr := make(chan error, 1)
	go s.readLoop(readErr)

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case <-keepalive.C:
			if s.state == StateInWorld {
				s.sendFrame(CMSGPing, buildPing())
			}
		}
	}
}

func (s *Session) readLoop(errCh chan<- error) {
	reader := make([]byte, 8192)
	for {
		n, err := s.conn.Read(reader)
		if err != nil {
			errCh <- err
			return
		}
		s.buf = append(s.buf, reader[:n]...)
		for {
			frame, consumed, err := s.codec.Decode(s.buf)
			if err != nil {
				errCh <- fmt.Errorf("world: decoding frame: %w", err)
				return
			}
			if frame == nil {
				break
			}
			s.buf = s.buf[consumed:]
			if err := s.handleFrame(frame); err != nil {
				errCh <- err
				return
			}
		}
	}
}

func (s *Session) handleFrame(f *wire.Frame) error {
	op := Opcode(f.Opcode)
	switch op {
	case SMSGAuthChallenge:
		return s.handleAuthChallenge(f.Payload)
	case SMSGAuthResponse:
		return s.handleAuthResponse(f.Payload)
	case SMSGCharEnum:
		return s.handleCharEnum(f.Payload)
	case SMSGLoginVerifyWorld:
		s.log.Info("entered world", slog.String("character", s.character))
		s.state = StateInWorld
		s.onEnterWorld()
	case SMSGCharacterLoginFailed:
		reason := byte(0)
		if len(f.Payload) > 0 {
			reason = f.Payload[0]
		}
		return fmt.Errorf("world: character login failed: reason=%#02x", reason)
	case CMSGPing, SMSGPong:
		s.lastKeepalive = time.Now()
	case SMSGTimeSyncReq:
		s.handleTimeSyncReq(f.Payload)
	default:
		s.frames <- Frame{Opcode: op, Payload: f.Payload}
	}
	return nil
}

// handleAuthChallenge receives the server seed, builds the
// CMSG_AUTH_SESSION proof, and sends it.
func (s *Session) handleAuthChallenge(payload []byte) error {
	if len(payload) < 4 {
		return fmt.Errorf("world: auth challenge payload too short: %d", len(payload))
	}
	serverSeed := payload[:4]

	var clientSeed [4]byte
	if _, err := rand.Read(clientSeed[:]); err != nil {
		return fmt.Errorf("world: generating client seed: %w", err)
	}

	digest := sha1.New()
	io.WriteString(digest, s.account)
	digest.Write(make([]byte, 4))
	digest.Write(clientSeed[:])
	digest.Write(serverSeed)
	digest.Write(s.sessionKey)
	proof := digest.Sum(nil)

	body := make([]byte, 0, 32+len(s.account)+1+len(proof)+len(addonInfo))
	body = append(body, 0, 0)     // unknown
	body = appendU32(body, 12340) // build
	body = appendU32(body, 0)     // login server id
	body = wire.AppendCString(body, s.account)
	body = appendU32(body, 0) // login server type
	body = append(body, clientSeed[:]...)
	body = appendU32(body, 0)                   // region id
	body = appendU32(body, 0)                   // battlegroup id
	body = appendU32(body, 0)                   // realm id
	body = append(body, 3, 0, 0, 0, 0, 0, 0, 0) // dos response
	body = append(body, proof...)
	body = append(body, addonInfo...)

	s.state = StateAuthing
	s.sendFrame(CMSGAuthSession, body)
	s.state = StateWaitAuth
	return nil
}

func (s *Session) handleAuthResponse(payload []byte) error {
	if len(payload) < 1 {
		return fmt.Errorf("world: auth response payload empty")
	}
	code := AuthResponseCode(payload[0])
	if code != AuthResponseOK {
		return fmt.Errorf("world: auth response code %#02x", uint8(code))
	}
	s.state = StateCharSelect
	s.sendFrame(CMSGCharEnum, nil)
	return nil
}

func (s *Session) handleCharEnum(payload []byte) error {
	if len(payload) < 1 {
		return fmt.Errorf("world: char enum payload empty")
	}
	count := int(payload[0])
	buf := payload[1:]
	chars := make([]Character, 0, count)
	for i := 0; i < count; i++ {
		if len(buf) < 8 {
			break
		}
		guid := binary.LittleEndian.Uint64(buf)
		buf = buf[8:]
		name, n, err := wire.ReadCString(buf)
		if err != nil {
			return fmt.Errorf("world: char enum name: %w", err)
		}
		buf = buf[n:]
		if len(buf) < 2 {
			break
		}
		race := buf[0]
		class := buf[1]
		buf = buf[2:]
		if len(buf) < 34 {
			break
		}
		buf = buf[34:] // gender, skin, face, hair style/color, facial hair, level, zone, map, x, y, z, guild id, flags, recustomize flags, first login
		if len(buf) < 1 {
			break
		}
		petCount := buf[0]
		_ = petCount
		buf = buf[1:]
		if len(buf) >= 12 {
			buf = buf[12:] // pet display, level, family
		}
		if len(buf) >= 19*19 {
			buf = buf[19*19:] // equipment slots
		}
		chars = append(chars, Character{GUID: guid, Name: name, Race: race, Class: class})
	}
	s.characters = chars

	for _, c := range chars {
		if equalFoldASCII(c.Name, s.character) {
			s.state = StateLoggingIn
			body := wire.WritePackedGUID(c.GUID)
			s.sendFrame(CMSGPlayerLogin, body)
			return nil
		}
	}
	return fmt.Errorf("world: character %q not found among %d characters", s.character, len(chars))
}

func (s *Session) handleTimeSyncReq(payload []byte) {
	var counter uint32
	if len(payload) >= 4 {
		counter = binary.LittleEndian.Uint32(payload)
	}
	uptimeMS := uint32(time.Since(s.connectedAt).Milliseconds())
	body := make([]byte, 0, 8)
	body = appendU32(body, counter)
	body = appendU32(body, uptimeMS)
	s.sendFrame(CMSGTimeSyncResp, body)
}

// onEnterWorld is a no-op hook for when the session lands in the world:
// joining the custom channels that routes name and the initial guild
// roster request happen one layer up, in the orchestrator, which has
// access to configuration.
func (s *Session) onEnterWorld() {}

// JoinChannel sends CMSG_JOIN_CHANNEL for the named channel: the
// channel name followed by its NUL terminator and an empty password.
func (s *Session) JoinChannel(channel string) {
	body := make([]byte, 0, len(channel)+2)
	body = wire.AppendCString(body, channel)
	body = append(body, 0) // password (empty)
	s.sendFrame(CMSGJoinChannel, body)
}

// SendFrame queues an outbound frame for writing.
func (s *Session) SendFrame(opcode Opcode, payload []byte) { s.sendFrame(opcode, payload) }

func (s *Session) sendFrame(opcode Opcode, payload []byte) {
	buf := s.codec.Encode(uint16(opcode), payload)
	if _, err := s.conn.Write(buf); err != nil {
		s.log.Error("world: write failed", slog.String("error", err.Error()), slog.Any("opcode", opcode))
	}
}

func buildPing() []byte {
	body := make([]byte, 0, 8)
	body = appendU32(body, 0)
	body = appendU32(body, 0)
	return body
}

func appendU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'a' && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if cb >= 'a' && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
