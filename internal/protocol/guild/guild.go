// Package guild decodes SMSG_GUILD_QUERY, SMSG_GUILD_ROSTER and
// SMSG_GUILD_EVENT frames and keeps the roster/event state the bridge
// needs for guild.<event> notifications and guild-dashboard stats.
package guild

import (
	"encoding/binary"
	"fmt"

	"github.com/innkeeper-bridge/innkeeper/internal/protocol/wire"
	"github.com/innkeeper-bridge/innkeeper/internal/resources"
)

// Query is the decoded SMSG_GUILD_QUERY reply: guild id, name, and the
// ten rank titles.
type Query struct {
	GuildID  uint32
	Name     string
	RankName [10]string
}

// DecodeQuery parses an SMSG_GUILD_QUERY payload.
func DecodeQuery(payload []byte) (*Query, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("guild: query payload too short")
	}
	q := &Query{GuildID: binary.LittleEndian.Uint32(payload)}
	buf := payload[4:]

	name, n, err := wire.ReadCString(buf)
	if err != nil {
		return nil, fmt.Errorf("guild: query name: %w", err)
	}
	q.Name = name
	buf = buf[n:]

	for i := 0; i < 10; i++ {
		rank, n, err := wire.ReadCString(buf)
		if err != nil {
			break
		}
		q.RankName[i] = rank
		buf = buf[n:]
	}
	return q, nil
}

// Member is one row of a guild roster.
type Member struct {
	GUID       uint64
	Name       string
	RankID     uint8
	Level      uint8
	ClassID    uint8
	Zone       uint32
	Online     bool
	LastLogoff float64 // days since last logoff; meaningful only when Online is false
	PublicNote string
	OfficerNote string
}

// Roster is a full SMSG_GUILD_ROSTER decode.
type Roster struct {
	MOTD    string
	Info    string
	Members []Member
}

// DecodeRoster parses an SMSG_GUILD_ROSTER payload.
func DecodeRoster(payload []byte) (*Roster, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("guild: roster payload too short")
	}
	buf := payload
	count := binary.LittleEndian.Uint32(buf)
	buf = buf[4:]

	motd, n, err := wire.ReadCString(buf)
	if err != nil {
		return nil, fmt.Errorf("guild: roster motd: %w", err)
	}
	buf = buf[n:]

	info, n, err := wire.ReadCString(buf)
	if err != nil {
		return nil, fmt.Errorf("guild: roster info: %w", err)
	}
	buf = buf[n:]

	if len(buf) < 4 {
		return nil, fmt.Errorf("guild: roster rank count missing")
	}
	rankCount := binary.LittleEndian.Uint32(buf)
	buf = buf[4:]
	for i := uint32(0); i < rankCount; i++ {
		if len(buf) < 4 {
			break
		}
		buf = buf[4:] // rights bitmask
		if len(buf) < 4 {
			break
		}
		buf = buf[4:] // bank flags
		// per-tab bank flags and withdraw limits, 48 bytes, skipped as one block:
		if len(buf) < 48 {
			break
		}
		buf = buf[48:]
	}

	r := &Roster{MOTD: motd, Info: info}
	for i := uint32(0); i < count; i++ {
		guid, n, err := wire.ReadPackedGUID(buf)
		if err != nil {
			break
		}
		buf = buf[n:]

		m := Member{GUID: guid}
		if len(buf) < 1 {
			break
		}
		online := buf[0] != 0
		m.Online = online
		buf = buf[1:]

		name, n, err := wire.ReadCString(buf)
		if err != nil {
			break
		}
		m.Name = name
		buf = buf[n:]

		if len(buf) < 7 {
			break
		}
		m.RankID = buf[0]
		m.Level = buf[1]
		m.ClassID = buf[2]
		buf = buf[3:]
		m.Zone = binary.LittleEndian.Uint32(buf)
		buf = buf[4:]

		if !online {
			if len(buf) < 4 {
				break
			}
			m.LastLogoff = float64(binary.LittleEndian.Uint32(buf))
			buf = buf[4:]
		}

		pubNote, n, err := wire.ReadCString(buf)
		if err != nil {
			break
		}
		m.PublicNote = pubNote
		buf = buf[n:]

		offNote, n, err := wire.ReadCString(buf)
		if err != nil {
			break
		}
		m.OfficerNote = offNote
		buf = buf[n:]

		r.Members = append(r.Members, m)
	}
	return r, nil
}

// Event is a decoded SMSG_GUILD_EVENT: the numeric event type plus the
// string arguments the wire variant carries for it. Field meaning
// depends on EventType per resources.GuildEventName.
type Event struct {
	EventType uint8
	Strings   []string
}

// DecodeEvent parses an SMSG_GUILD_EVENT payload: a type byte, a string
// count, then that many NUL-terminated strings.
func DecodeEvent(payload []byte) (*Event, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("guild: event payload too short")
	}
	eventType := payload[0]
	strCount := int(payload[1])
	buf := payload[2:]

	ev := &Event{EventType: eventType}
	for i := 0; i < strCount; i++ {
		s, n, err := wire.ReadCString(buf)
		if err != nil {
			return nil, fmt.Errorf("guild: event string %d: %w", i, err)
		}
		ev.Strings = append(ev.Strings, s)
		buf = buf[n:]
	}
	return ev, nil
}

// Actor, Target, MOTD and KickReason interpret an Event's string list
// according to its EventType, matching the wire variant's per-event
// string layout: MOTD carries a single string (the new MOTD text);
// PROMOTED/DEMOTED carry (actor, target[, rank]); JOINED/LEFT/SIGNED_ON/
// SIGNED_OFF carry (actor); REMOVED carries (kicked, kicker) — the
// kicker is the *second* string, not the first.

// Actor returns the event's primary subject name, or "" if not
// applicable to this EventType.
func (e *Event) Actor() string {
	switch e.EventType {
	case resources.GuildEventRemoved:
		if len(e.Strings) >= 2 {
			return e.Strings[1]
		}
	case resources.GuildEventMotd:
		return ""
	default:
		if len(e.Strings) >= 1 {
			return e.Strings[0]
		}
	}
	return ""
}

// Target returns the secondary name for events that have one (promoted/
// demoted/removed), or "" otherwise.
func (e *Event) Target() string {
	switch e.EventType {
	case resources.GuildEventRemoved:
		if len(e.Strings) >= 1 {
			return e.Strings[0]
		}
	case resources.GuildEventPromoted, resources.GuildEventDemoted:
		if len(e.Strings) >= 2 {
			return e.Strings[1]
		}
	}
	return ""
}

// MOTDText returns the new message of the day for a GuildEventMotd
// event, or "" otherwise.
func (e *Event) MOTDText() string {
	if e.EventType != resources.GuildEventMotd {
		return ""
	}
	if len(e.Strings) >= 1 {
		return e.Strings[0]
	}
	return ""
}
