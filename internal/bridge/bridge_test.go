package bridge

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestParseDirectionAliases(t *testing.T) {
	cases := map[string]Direction{
		"both": Both, "": Both, "garbage": Both,
		"wow_to_discord": WowToPlatform, "w2d": WowToPlatform,
		"discord_to_wow": PlatformToWow, "d2w": PlatformToWow,
	}
	for in, want := range cases {
		if got := ParseDirection(in); got != want {
			t.Fatalf("ParseDirection(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRouterIndexesBothDirections(t *testing.T) {
	guild := &Route{Wow: WowChannel{Kind: "guild"}, PlatformChannel: "guild-chat", Direction: Both}
	custom := &Route{Wow: WowChannel{Kind: "custom", Name: "Trade"}, PlatformChannel: "trade-chat", Direction: WowToPlatform}

	r := NewRouter([]*Route{guild, custom})

	if got := r.RoutesForWow(0x04, ""); len(got) != 1 || got[0] != guild {
		t.Fatalf("guild lookup = %+v", got)
	}
	if got := r.RoutesForWow(0x11, "Trade"); len(got) != 1 || got[0] != custom {
		t.Fatalf("custom lookup = %+v", got)
	}
	if got := r.RoutesForPlatform("guild-chat"); len(got) != 1 {
		t.Fatalf("platform lookup = %+v", got)
	}
	if got := r.RoutesForPlatform("trade-chat"); len(got) != 0 {
		t.Fatalf("w2p-only route should not appear in platform_to_wow: %+v", got)
	}
	if len(r.ChannelsToJoin) != 1 || r.ChannelsToJoin[0] != "Trade" {
		t.Fatalf("ChannelsToJoin = %v", r.ChannelsToJoin)
	}
}

func TestFilterSkipsInvalidPatternsAndMatchesRest(t *testing.T) {
	f := NewFilter([]string{"(unterminated(", `\bspam\b`}, nil)
	if !f.ShouldFilter("this is spam indeed") {
		t.Fatalf("expected spam to be filtered")
	}
	if f.ShouldFilter("this is clean") {
		t.Fatalf("did not expect a match")
	}
}

func TestFilterNilNeverFilters(t *testing.T) {
	var f *Filter
	if f.ShouldFilter("anything") {
		t.Fatalf("nil filter should never match")
	}
}

func TestFormatterSinglePassSubstitution(t *testing.T) {
	f := &Formatter{Template: "[%channel] %user: %message"}
	out := f.Format(Values{User: "Jaina", Message: "%user says hi", Channel: "guild"})
	if out != "[guild] Jaina: %user says hi" {
		t.Fatalf("out = %q", out)
	}
}

func TestSplitMessageRespectsBudgetAndSpaceBoundary(t *testing.T) {
	f := &Formatter{Template: "%user: %message"}
	body := strings.Repeat("word ", 60) // far over 255 bytes once formatted
	lines := f.SplitMessage(Values{User: "Bot", Message: strings.TrimSpace(body)})
	if len(lines) < 2 {
		t.Fatalf("expected multiple lines, got %d", len(lines))
	}
	for _, l := range lines {
		if len(l) > maxMessageLength {
			t.Fatalf("line exceeds budget: %d bytes", len(l))
		}
	}
}

func TestSplitMessagePrependsSpaceForDotCommand(t *testing.T) {
	f := &Formatter{Template: "%message"}
	lines := f.SplitMessage(Values{Message: ".gtfo this would otherwise look like a dot command"})
	if !strings.HasPrefix(lines[0], " .") {
		t.Fatalf("lines[0] = %q, want leading space before dot", lines[0])
	}
}

func TestSplitMessageNoSpaceHardSplitsOnCharBoundary(t *testing.T) {
	f := &Formatter{Template: "%message"}
	body := strings.Repeat("x", 400)
	lines := f.SplitMessage(Values{Message: body})
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if len(lines[0]) != maxMessageLength {
		t.Fatalf("lines[0] len = %d, want %d", len(lines[0]), maxMessageLength)
	}
}

func TestSplitMessageMultibyteUTF8NeverSplitsScalar(t *testing.T) {
	f := &Formatter{Template: "%message"}
	body := strings.Repeat("héllo wörld ", 40)
	lines := f.SplitMessage(Values{Message: body})
	for _, l := range lines {
		if !utf8.ValidString(l) {
			t.Fatalf("line is not valid utf-8: %q", l)
		}
	}
}

func TestResolverW2PStripsColorAndTextureAndEscapesMarkdown(t *testing.T) {
	r := &Resolver{}
	in := "|cffff0000Hello|r |TInterface\\Icons\\foo:16|t *bold* plain"
	out := r.ToPlatform(in, true)
	if strings.Contains(out, "|c") || strings.Contains(out, "|T") {
		t.Fatalf("escapes not stripped: %q", out)
	}
	if !strings.Contains(out, "\\*bold\\*") {
		t.Fatalf("markdown not escaped: %q", out)
	}
}

func TestResolverW2PDoesNotEscapeMarkdownForSystemMessages(t *testing.T) {
	r := &Resolver{}
	out := r.ToPlatform("*system* message", false)
	if strings.Contains(out, "\\*") {
		t.Fatalf("system message markdown should not be escaped: %q", out)
	}
}

func TestResolverP2WMentionFallsBackWhenUnresolved(t *testing.T) {
	r := &Resolver{}
	out, unresolved := r.ToWow("hello <@12345>")
	if !unresolved {
		t.Fatalf("expected unresolved mention to be flagged")
	}
	if !strings.Contains(out, "<@12345>") {
		t.Fatalf("unresolved mention should be left raw: %q", out)
	}
}

func TestResolverP2WMentionResolves(t *testing.T) {
	r := &Resolver{LookupUser: func(id string) (string, bool) {
		if id == "42" {
			return "Thrall", true
		}
		return "", false
	}}
	out, unresolved := r.ToWow("hi <@42>")
	if unresolved {
		t.Fatalf("did not expect unresolved")
	}
	if out != "hi @Thrall" {
		t.Fatalf("out = %q", out)
	}
}

func TestResolveMatchesByNumericIDThenName(t *testing.T) {
	pending := &PendingState{Routes: []*Route{
		{PlatformChannel: "12345", Direction: Both, Wow: WowChannel{Kind: "guild"}},
		{PlatformChannel: "General", Direction: Both, Wow: WowChannel{Kind: "say"}},
	}}
	listed := []PlatformChannel{
		{ID: "12345", Name: "guild-chat"},
		{ID: "999", Name: "general"},
	}
	rs := Resolve(pending, listed, "self-id", &Resolver{})
	if len(rs.Unresolved) != 0 {
		t.Fatalf("Unresolved = %+v", rs.Unresolved)
	}
	if rs.PlatformToWow["12345"] == nil || rs.PlatformToWow["999"] == nil {
		t.Fatalf("PlatformToWow = %+v", rs.PlatformToWow)
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	b := NewBackoff()
	if b.current != backoffInitial {
		t.Fatalf("current = %v, want %v", b.current, backoffInitial)
	}
	for i := 0; i < 200; i++ {
		d := b.Next()
		if d <= 0 {
			t.Fatalf("Next() returned non-positive delay")
		}
	}
	if b.current != backoffCap {
		t.Fatalf("current = %v, want cap %v", b.current, backoffCap)
	}
}

func TestBackoffResetReturnsToInitial(t *testing.T) {
	b := NewBackoff()
	b.Next()
	b.Next()
	b.Reset()
	if b.current != backoffInitial {
		t.Fatalf("current after reset = %v, want %v", b.current, backoffInitial)
	}
}

var _ = time.Second
