// Package chat decodes SMSG_MESSAGE_CHAT and SMSG_NAME_QUERY frames and
// resolves chat messages to sender names via a bounded pending-GUID
// cache. It has no knowledge of Discord; it only turns wire bytes into
// a Message the bridge package can route.
package chat

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/innkeeper-bridge/innkeeper/internal/protocol/wire"
	"github.com/innkeeper-bridge/innkeeper/internal/resources"
)

// Message is a decoded, not-yet-named chat event: sender identity is
// still a GUID until the name cache (or a CMSG_NAME_QUERY round trip)
// resolves it.
type Message struct {
	Type          uint8
	Language      resources.Language
	Sender        uint64
	Channel       string // only set for CHAT_MSG_CHANNEL
	Text          string
	IsGM          bool
	AchievementID uint32 // only set for CHAT_MSG_GUILD_ACHIEVEMENT
}

// ErrAddonMessage is returned for addon-channel traffic (language ==
// LangAddon), which uses a different payload layout this package does
// not parse. Callers should drop the frame without logging it as a
// decode failure.
var ErrAddonMessage = errors.New("chat: addon message")

// Decode parses the payload of an SMSG_MESSAGE_CHAT frame.
func Decode(payload []byte) (*Message, error) { return decode(payload, false) }

// DecodeGM parses the payload of an SMSG_GM_MESSAGECHAT frame, which
// carries an extra length-prefixed GM name ahead of the usual fields.
func DecodeGM(payload []byte) (*Message, error) { return decode(payload, true) }

// decode parses the payload of an SMSG_MESSAGE_CHAT/SMSG_GM_MESSAGECHAT
// frame. chatType drives several layout variants: CHANNEL carries a
// channel name after the sender GUID and before the repeated GUID,
// GUILD_ACHIEVEMENT carries a trailing achievement id after the chat
// tag, IGNORED is sender-only with no text.
func decode(payload []byte, isGM bool) (*Message, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("chat: message payload empty")
	}
	buf := payload
	chatType := buf[0]
	buf = buf[1:]

	if len(buf) < 4 {
		return nil, fmt.Errorf("chat: message payload missing language")
	}
	language := resources.Language(binary.LittleEndian.Uint32(buf))
	buf = buf[4:]

	if language == resources.LangAddon {
		return nil, ErrAddonMessage
	}

	guid, n, err := readU64GUID(buf)
	if err != nil {
		return nil, fmt.Errorf("chat: sender guid: %w", err)
	}
	buf = buf[n:]

	msg := &Message{Type: chatType, Language: language, Sender: guid, IsGM: isGM}

	if chatType == resources.ChatMsgIgnored {
		msg.Type = resources.ChatMsgWhisperInform
		msg.Text = "is ignoring you"
		return msg, nil
	}

	// Unknown field immediately after the sender GUID.
	if len(buf) >= 4 {
		buf = buf[4:]
	}

	if isGM {
		if len(buf) >= 4 {
			buf = buf[4:]
		}
		_, n, err := wire.ReadCString(buf)
		if err != nil {
			return nil, fmt.Errorf("chat: gm name: %w", err)
		}
		buf = buf[n:]
	}

	if chatType == resources.ChatMsgChannel {
		name, n, err := wire.ReadCString(buf)
		if err != nil {
			return nil, fmt.Errorf("chat: channel name: %w", err)
		}
		buf = buf[n:]
		msg.Channel = name
	}

	// The sender guid is repeated here in the wire layout.
	if len(buf) >= 8 {
		buf = buf[8:]
	}

	if len(buf) < 4 {
		return nil, fmt.Errorf("chat: text length missing")
	}
	textLen := binary.LittleEndian.Uint32(buf)
	buf = buf[4:]

	// textLen counts the NUL terminator; the payload itself doesn't.
	msgLen := 0
	if textLen > 0 {
		msgLen = int(textLen) - 1
	}
	if len(buf) < msgLen {
		return nil, fmt.Errorf("chat: text length %d exceeds remaining %d bytes", msgLen, len(buf))
	}
	msg.Text = string(buf[:msgLen])
	buf = buf[msgLen:]

	if len(buf) > 0 { // NUL terminator
		buf = buf[1:]
	}
	if len(buf) > 0 { // chat tag
		buf = buf[1:]
	}

	if chatType == resources.ChatMsgGuildAchievement && len(buf) >= 4 {
		msg.AchievementID = binary.LittleEndian.Uint32(buf)
	}

	return msg, nil
}

func readU64GUID(buf []byte) (uint64, int, error) {
	if len(buf) < 8 {
		return 0, 0, fmt.Errorf("need 8 bytes, have %d", len(buf))
	}
	return binary.LittleEndian.Uint64(buf), 8, nil
}

// NameQueryResponse is a decoded SMSG_NAME_QUERY reply.
type NameQueryResponse struct {
	GUID  uint64
	Known bool
	Name  string
}

// DecodeNameQuery parses an SMSG_NAME_QUERY payload. The wire variant
// inverts the "known" flag: a leading non-zero byte means the name was
// NOT found server-side.
func DecodeNameQuery(payload []byte) (*NameQueryResponse, error) {
	if len(payload) < 9 {
		return nil, fmt.Errorf("chat: name query payload too short: %d", len(payload))
	}
	guid := binary.LittleEndian.Uint64(payload)
	buf := payload[8:]
	notFound := buf[0]
	buf = buf[1:]

	resp := &NameQueryResponse{GUID: guid, Known: notFound == 0}
	if !resp.Known {
		return resp, nil
	}
	name, _, err := wire.ReadCString(buf)
	if err != nil {
		return nil, fmt.Errorf("chat: name query name: %w", err)
	}
	resp.Name = name
	return resp, nil
}
