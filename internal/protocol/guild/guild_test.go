package guild

import (
	"testing"

	"github.com/innkeeper-bridge/innkeeper/internal/protocol/wire"
	"github.com/innkeeper-bridge/innkeeper/internal/resources"
)

func TestDecodeQuery(t *testing.T) {
	var buf []byte
	buf = append(buf, 1, 0, 0, 0) // guild id
	buf = wire.AppendCString(buf, "Horde Vanguard")
	for i := 0; i < 10; i++ {
		buf = wire.AppendCString(buf, "Rank")
	}
	q, err := DecodeQuery(buf)
	if err != nil {
		t.Fatalf("DecodeQuery: %v", err)
	}
	if q.GuildID != 1 || q.Name != "Horde Vanguard" {
		t.Fatalf("q = %+v", q)
	}
	if q.RankName[0] != "Rank" {
		t.Fatalf("rank[0] = %q", q.RankName[0])
	}
}

func TestDecodeRosterOnlineAndOfflineMembers(t *testing.T) {
	var buf []byte
	buf = append(buf, 2, 0, 0, 0) // member count
	buf = wire.AppendCString(buf, "Welcome!")
	buf = wire.AppendCString(buf, "Guild info")
	buf = append(buf, 0, 0, 0, 0) // rank count = 0

	buf = append(buf, wire.WritePackedGUID(0x11)...)
	buf = append(buf, 1) // online
	buf = wire.AppendCString(buf, "Arthas")
	buf = append(buf, 0, 80, 6) // rank, level, class
	buf = append(buf, 1, 0, 0, 0) // zone
	buf = wire.AppendCString(buf, "pub")
	buf = wire.AppendCString(buf, "off")

	buf = append(buf, wire.WritePackedGUID(0x22)...)
	buf = append(buf, 0) // offline
	buf = wire.AppendCString(buf, "Jaina")
	buf = append(buf, 1, 75, 8)
	buf = append(buf, 2, 0, 0, 0)
	buf = append(buf, 5, 0, 0, 0) // last logoff
	buf = wire.AppendCString(buf, "")
	buf = wire.AppendCString(buf, "")

	r, err := DecodeRoster(buf)
	if err != nil {
		t.Fatalf("DecodeRoster: %v", err)
	}
	if r.MOTD != "Welcome!" {
		t.Fatalf("MOTD = %q", r.MOTD)
	}
	if len(r.Members) != 2 {
		t.Fatalf("got %d members, want 2", len(r.Members))
	}
	if !r.Members[0].Online || r.Members[0].Name != "Arthas" {
		t.Fatalf("members[0] = %+v", r.Members[0])
	}
	if r.Members[1].Online || r.Members[1].LastLogoff != 5 {
		t.Fatalf("members[1] = %+v", r.Members[1])
	}
}

func TestDecodeEventRemovedSwapsKickerAndKicked(t *testing.T) {
	var buf []byte
	buf = append(buf, resources.GuildEventRemoved, 2)
	buf = wire.AppendCString(buf, "Kicked")
	buf = wire.AppendCString(buf, "Kicker")

	ev, err := DecodeEvent(buf)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if ev.Target() != "Kicked" {
		t.Fatalf("Target() = %q, want Kicked", ev.Target())
	}
	if ev.Actor() != "Kicker" {
		t.Fatalf("Actor() = %q, want Kicker", ev.Actor())
	}
}

func TestDecodeEventMOTD(t *testing.T) {
	var buf []byte
	buf = append(buf, resources.GuildEventMotd, 1)
	buf = wire.AppendCString(buf, "Raid tonight at 8!")

	ev, err := DecodeEvent(buf)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if ev.MOTDText() != "Raid tonight at 8!" {
		t.Fatalf("MOTDText() = %q", ev.MOTDText())
	}
	if ev.Actor() != "" {
		t.Fatalf("Actor() for motd = %q, want empty", ev.Actor())
	}
}

func TestDecodeEventPromoted(t *testing.T) {
	var buf []byte
	buf = append(buf, resources.GuildEventPromoted, 2)
	buf = wire.AppendCString(buf, "Officer Name")
	buf = wire.AppendCString(buf, "Promoted Member")

	ev, err := DecodeEvent(buf)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if ev.Actor() != "Officer Name" || ev.Target() != "Promoted Member" {
		t.Fatalf("actor=%q target=%q", ev.Actor(), ev.Target())
	}
}
