package orchestrator

import (
	"testing"

	"github.com/innkeeper-bridge/innkeeper/internal/bridge"
	"github.com/innkeeper-bridge/innkeeper/internal/config"
	"github.com/innkeeper-bridge/innkeeper/internal/resources"
)

func TestBuildRoutesCustomChannel(t *testing.T) {
	cfg := &config.Config{
		Chat: config.ChatConfig{
			Channels: []config.ChatChannel{
				{
					Direction: "both",
					Wow:       config.ChatChannelWow{Type: "custom", Channel: "World", Format: "%user: %message"},
					Discord:   config.ChatChannelDiscord{Channel: "general", Format: "**%user**: %message"},
				},
				{
					Direction: "wow_to_discord",
					Wow:       config.ChatChannelWow{Type: "guild", Format: "[Guild] %user: %message"},
					Discord:   config.ChatChannelDiscord{Channel: "guild-chat"},
				},
			},
		},
	}

	routes := buildRoutes(cfg, nil)
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}
	if routes[0].Wow.Kind != "custom" || routes[0].Wow.Name != "World" {
		t.Fatalf("expected custom channel World, got %+v", routes[0].Wow)
	}
	if routes[1].Wow.Kind != "guild" {
		t.Fatalf("expected guild channel, got %+v", routes[1].Wow)
	}
	if routes[1].Direction != bridge.WowToPlatform {
		t.Fatalf("expected wow_to_discord direction, got %v", routes[1].Direction)
	}
}

func TestWowChannelForUnknownKind(t *testing.T) {
	wc := wowChannelFor("", "some-channel")
	if wc.Kind != "custom" || wc.Name != "some-channel" {
		t.Fatalf("expected custom fallback, got %+v", wc)
	}
}

func TestDotCommandAllowedEmptyWhitelist(t *testing.T) {
	o := New(&config.Config{}, nil)
	if !o.dotCommandAllowed(".commands anything") {
		t.Fatal("empty whitelist should allow every dot command")
	}
}

func TestDotCommandAllowedWhitelist(t *testing.T) {
	o := New(&config.Config{
		Discord: config.DiscordConfig{DotCommandsWhitelist: []string{"commands", "augment"}},
	}, nil)
	if !o.dotCommandAllowed(".commands") {
		t.Fatal("expected whitelisted verb to be allowed")
	}
	if o.dotCommandAllowed(".achievements") {
		t.Fatal("expected non-whitelisted verb to be rejected")
	}
}

// handleBangCommand's recognized verbs all funnel through
// respondToPlatform, which posts via the Discord gateway. With no live
// session the send fails (logged, not panicking) — this exercises the
// recognition/parsing branch, not the network path.
func TestHandleBangCommandRecognizesVerbs(t *testing.T) {
	o := New(&config.Config{}, nil)

	cases := []struct {
		content string
		want    bool
	}{
		{"!help", true},
		{"!who", true},
		{"!who Anduin", true},
		{"!online", true},
		{"!gmotd", true},
		{"?who", true},
		{"hello there", false},
		{"!unknown", false},
		{"!", false},
	}
	for _, c := range cases {
		msg := bridge.IncomingPlatformMessage{ChannelID: "1", Content: c.content}
		got := o.handleBangCommand(msg)
		if got != c.want {
			t.Errorf("handleBangCommand(%q) = %v, want %v", c.content, got, c.want)
		}
	}
}

func TestWhoOnlineTextNoRoster(t *testing.T) {
	o := New(&config.Config{}, nil)
	if got := o.whoOnlineText(""); got != "Roster not loaded yet." {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestCachedMOTDTextEmpty(t *testing.T) {
	o := New(&config.Config{}, nil)
	if got := o.cachedMOTDText(); got != "No guild MOTD cached yet." {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestChatTypeForRouteKind(t *testing.T) {
	cases := map[string]uint8{
		"guild":    resources.ChatMsgGuild,
		"officer":  resources.ChatMsgOfficer,
		"say":      resources.ChatMsgSay,
		"yell":     resources.ChatMsgYell,
		"emote":    resources.ChatMsgEmote,
		"whisper":  resources.ChatMsgWhisper,
		"custom":   resources.ChatMsgChannel,
		"whatever": resources.ChatMsgChannel,
	}
	for kind, want := range cases {
		if got := chatTypeForRouteKind(kind); got != want {
			t.Errorf("chatTypeForRouteKind(%q) = %v, want %v", kind, got, want)
		}
	}
}

func TestAppendU32LittleEndian(t *testing.T) {
	got := appendU32(nil, 0x01020304)
	want := []byte{0x04, 0x03, 0x02, 0x01}
	if len(got) != len(want) {
		t.Fatalf("expected %d bytes, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got %#x, want %#x", i, got[i], want[i])
		}
	}
}
