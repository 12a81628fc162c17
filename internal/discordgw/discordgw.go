// Package discordgw adapts github.com/bwmarrin/discordgo to the plain
// event/action shapes package bridge expects, so the rest of the
// bridge never imports discordgo directly. It connects the platform
// session and dispatches incoming events to the orchestrator. A failed
// initial connect is not retried; reconnecting a session that was
// open is left to discordgo's own session handling.
package discordgw

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/innkeeper-bridge/innkeeper/internal/bridge"
)

// Gateway owns one discordgo session and exposes it as a narrow,
// bridge-shaped interface.
type Gateway struct {
	Token   string
	GuildID string
	Log     *slog.Logger

	mu      sync.RWMutex
	session *discordgo.Session

	channels chan bridge.IncomingPlatformMessage
	ready    chan struct{}
	readyOnce sync.Once

	selfUserID string
}

// NewGateway creates a Gateway; call Run to connect.
func NewGateway(token, guildID string, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		Token:    token,
		GuildID:  guildID,
		Log:      log,
		channels: make(chan bridge.IncomingPlatformMessage, 256),
		ready:    make(chan struct{}),
	}
}

// Incoming returns the channel of inbound platform chat messages.
func (g *Gateway) Incoming() <-chan bridge.IncomingPlatformMessage { return g.channels }

// Ready is closed once the gateway has received Discord's READY event
// and self_user_id is populated.
func (g *Gateway) Ready() <-chan struct{} { return g.ready }

// SelfUserID returns this bot's own user id, valid after Ready() closes.
func (g *Gateway) SelfUserID() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.selfUserID
}

// Run opens the Discord session and blocks until ctx is cancelled,
// then closes the session. If creating or opening the session fails,
// Run returns the error; nothing calls it again, and bridge.Backoff is
// not used for the platform connection.
func (g *Gateway) Run(ctx context.Context) error {
	session, err := discordgo.New("Bot " + g.Token)
	if err != nil {
		return fmt.Errorf("discordgw: creating session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsGuilds | discordgo.IntentsMessageContent

	session.AddHandler(g.onReady)
	session.AddHandler(g.onMessageCreate)

	if err := session.Open(); err != nil {
		return fmt.Errorf("discordgw: opening session: %w", err)
	}

	g.mu.Lock()
	g.session = session
	g.mu.Unlock()

	g.Log.Info("discord gateway connected")

	<-ctx.Done()
	return session.Close()
}

func (g *Gateway) onReady(s *discordgo.Session, r *discordgo.Ready) {
	g.mu.Lock()
	g.selfUserID = r.User.ID
	g.mu.Unlock()
	g.readyOnce.Do(func() { close(g.ready) })
	g.Log.Info("discord ready", slog.String("self_user_id", r.User.ID))
}

func (g *Gateway) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	g.channels <- bridge.IncomingPlatformMessage{
		ChannelID:  m.ChannelID,
		MessageID:  m.ID,
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		IsBot:      m.Author.Bot,
		IsDM:       m.GuildID == "",
		Content:    m.Content,
	}
}

// React adds an emoji reaction to a message, used to acknowledge a
// recognized bot command while its reply is still in flight.
func (g *Gateway) React(channelID, messageID, emoji string) error {
	g.mu.RLock()
	session := g.session
	g.mu.RUnlock()
	if session == nil {
		return fmt.Errorf("discordgw: session not connected")
	}
	return session.MessageReactionAdd(channelID, messageID, emoji)
}

// ListChannels returns every text channel in the configured guild, for
// ResolvedState construction.
func (g *Gateway) ListChannels() ([]bridge.PlatformChannel, error) {
	g.mu.RLock()
	session := g.session
	g.mu.RUnlock()
	if session == nil {
		return nil, fmt.Errorf("discordgw: session not connected")
	}

	chans, err := session.GuildChannels(g.GuildID)
	if err != nil {
		return nil, fmt.Errorf("discordgw: listing guild channels: %w", err)
	}
	out := make([]bridge.PlatformChannel, 0, len(chans))
	for _, c := range chans {
		if c.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		out = append(out, bridge.PlatformChannel{ID: c.ID, Name: c.Name})
	}
	return out, nil
}

// SendAction posts a formatted message to a Discord channel.
func (g *Gateway) SendAction(action bridge.PlatformAction) error {
	g.mu.RLock()
	session := g.session
	g.mu.RUnlock()
	if session == nil {
		return fmt.Errorf("discordgw: session not connected")
	}
	_, err := session.ChannelMessageSend(action.ChannelID, action.Content)
	return err
}

// SetPresence updates the bot's presence text, shown online or idle
// depending on whether the game session currently considers itself
// connected.
func (g *Gateway) SetPresence(text string, online bool) error {
	g.mu.RLock()
	session := g.session
	g.mu.RUnlock()
	if session == nil {
		return fmt.Errorf("discordgw: session not connected")
	}
	status := discordgo.StatusIdle
	if online {
		status = discordgo.StatusOnline
	}
	return session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status: string(status),
		Activities: []*discordgo.Activity{
			{Name: text, Type: discordgo.ActivityTypeCustom, State: text},
		},
	})
}

// ResolveUserName looks up a guild member's display name by id.
func (g *Gateway) ResolveUserName(id string) (string, bool) {
	g.mu.RLock()
	session := g.session
	g.mu.RUnlock()
	if session == nil {
		return "", false
	}
	member, err := session.GuildMember(g.GuildID, id)
	if err != nil || member == nil {
		return "", false
	}
	if member.Nick != "" {
		return member.Nick, true
	}
	if member.User != nil {
		return member.User.Username, true
	}
	return "", false
}

// ResolveChannelName looks up a channel's name by id.
func (g *Gateway) ResolveChannelName(id string) (string, bool) {
	g.mu.RLock()
	session := g.session
	g.mu.RUnlock()
	if session == nil {
		return "", false
	}
	ch, err := session.Channel(id)
	if err != nil || ch == nil {
		return "", false
	}
	return ch.Name, true
}

// ResolveRoleName looks up a role's name by id.
func (g *Gateway) ResolveRoleName(id string) (string, bool) {
	g.mu.RLock()
	session := g.session
	g.mu.RUnlock()
	if session == nil {
		return "", false
	}
	roles, err := session.GuildRoles(g.GuildID)
	if err != nil {
		return "", false
	}
	for _, r := range roles {
		if r.ID == id {
			return r.Name, true
		}
	}
	return "", false
}

// ResolveEmojiID looks up a custom emoji's numeric id by name.
func (g *Gateway) ResolveEmojiID(name string) (string, bool) {
	g.mu.RLock()
	session := g.session
	g.mu.RUnlock()
	if session == nil {
		return "", false
	}
	emojis, err := session.GuildEmojis(g.GuildID)
	if err != nil {
		return "", false
	}
	for _, e := range emojis {
		if strings.EqualFold(e.Name, name) {
			return e.ID, true
		}
	}
	return "", false
}
