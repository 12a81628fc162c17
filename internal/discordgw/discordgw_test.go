package discordgw

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/innkeeper-bridge/innkeeper/internal/bridge"
)

// None of these exercise a live discordgo session — that would require
// a real gateway connection, which isn't part of this bridge's test
// surface. They cover the adapter's behavior before Run has connected.

func TestNewGatewaySetsFields(t *testing.T) {
	g := NewGateway("token", "guild-1", nil)
	if g.Token != "token" || g.GuildID != "guild-1" {
		t.Fatalf("unexpected gateway fields: %+v", g)
	}
	if g.Log == nil {
		t.Fatal("expected default logger when nil is passed")
	}
	select {
	case <-g.Ready():
		t.Fatal("ready channel should not be closed before onReady fires")
	default:
	}
}

func TestSendActionWithoutSessionErrors(t *testing.T) {
	g := NewGateway("token", "guild-1", nil)
	err := g.SendAction(bridge.PlatformAction{ChannelID: "123", Content: "hi"})
	if err == nil {
		t.Fatal("expected error sending without a connected session")
	}
}

func TestSetPresenceWithoutSessionErrors(t *testing.T) {
	g := NewGateway("token", "guild-1", nil)
	if err := g.SetPresence("testing", true); err == nil {
		t.Fatal("expected error updating presence without a connected session")
	}
}

func TestListChannelsWithoutSessionErrors(t *testing.T) {
	g := NewGateway("token", "guild-1", nil)
	if _, err := g.ListChannels(); err == nil {
		t.Fatal("expected error listing channels without a connected session")
	}
}

func TestResolveHelpersWithoutSessionReturnFalse(t *testing.T) {
	g := NewGateway("token", "guild-1", nil)
	if _, ok := g.ResolveUserName("1"); ok {
		t.Fatal("expected ResolveUserName to report unresolved without a session")
	}
	if _, ok := g.ResolveChannelName("1"); ok {
		t.Fatal("expected ResolveChannelName to report unresolved without a session")
	}
	if _, ok := g.ResolveRoleName("1"); ok {
		t.Fatal("expected ResolveRoleName to report unresolved without a session")
	}
	if _, ok := g.ResolveEmojiID("pepe"); ok {
		t.Fatal("expected ResolveEmojiID to report unresolved without a session")
	}
}

func TestOnMessageCreateSkipsNilAuthor(t *testing.T) {
	g := NewGateway("token", "guild-1", nil)
	g.onMessageCreate(nil, &discordgo.MessageCreate{Message: &discordgo.Message{ChannelID: "1"}})
	select {
	case <-g.Incoming():
		t.Fatal("expected no message forwarded for a nil author")
	default:
	}
}
