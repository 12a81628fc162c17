// Package orchestrator wires the realm/world connection, the Discord
// gateway, and the bridge's routing/translation layer into the set of
// cooperating tasks described for this bridge: a game-session task, a
// platform gateway task, W2P/P2W forwarders, a command-response path,
// a presence forwarder, and an optional guild dashboard.
package orchestrator

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/innkeeper-bridge/innkeeper/internal/bridge"
	"github.com/innkeeper-bridge/innkeeper/internal/config"
	"github.com/innkeeper-bridge/innkeeper/internal/discordgw"
	"github.com/innkeeper-bridge/innkeeper/internal/health"
	"github.com/innkeeper-bridge/innkeeper/internal/presence"
	"github.com/innkeeper-bridge/innkeeper/internal/protocol/chat"
	"github.com/innkeeper-bridge/innkeeper/internal/protocol/guild"
	"github.com/innkeeper-bridge/innkeeper/internal/protocol/objupdate"
	"github.com/innkeeper-bridge/innkeeper/internal/protocol/realm"
	"github.com/innkeeper-bridge/innkeeper/internal/protocol/wire"
	"github.com/innkeeper-bridge/innkeeper/internal/protocol/world"
	"github.com/innkeeper-bridge/innkeeper/internal/resources"
)

// wowSendLimit throttles outbound CMSG_MESSAGE_CHAT frames to stay
// under the server's chat anti-spam threshold (roughly one message per
// second, with a short burst allowance for multi-line splits).
const wowSendLimit = rate.Limit(1)
const wowSendBurst = 3

// Orchestrator owns every long-running task for one bridge instance.
type Orchestrator struct {
	cfg *config.Config
	log *slog.Logger

	gw *discordgw.Gateway

	markup *bridge.Resolver
	router *bridge.Router
	routes []*bridge.Route

	resolved atomic.Pointer[bridge.ResolvedState]

	chatResolver *chat.Resolver

	mu           sync.Mutex
	guildID      uint32
	rankNames    [10]string
	roster       *guild.Roster
	selfGUID     uint64
	selfLanguage resources.Language
	motd         string
	triedToSit   bool

	outboundWow chan bridge.OutboundWowMessage
	wowLimiter  *rate.Limiter

	health *health.Server
}

// New builds an Orchestrator from loaded configuration. Call Run to
// start every task; Run blocks until ctx is cancelled.
func New(cfg *config.Config, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	o := &Orchestrator{
		cfg:          cfg,
		log:          log,
		gw:           discordgw.NewGateway(cfg.Discord.Token, cfg.Discord.GuildID, log),
		markup:       &bridge.Resolver{},
		outboundWow:  make(chan bridge.OutboundWowMessage, 256),
		wowLimiter:   rate.NewLimiter(wowSendLimit, wowSendBurst),
		health:       health.New(cfg.Health.Listen),
		selfLanguage: resources.LangCommon,
	}
	o.markup.LookupUser = o.gw.ResolveUserName
	o.markup.LookupChannel = o.gw.ResolveChannelName
	o.markup.LookupRole = o.gw.ResolveRoleName
	o.markup.LookupEmoji = o.gw.ResolveEmojiID
	o.routes = buildRoutes(cfg, log)
	o.router = bridge.NewRouter(o.routes)
	o.chatResolver = chat.NewResolver()
	return o
}

// Run starts the platform gateway task, the game-session task, and the
// dispatcher that resolves channel routes once both are ready. It
// blocks until ctx is cancelled, then shuts down the health server and
// waits for the tasks to return. No logout request is sent to the world
// server; the world connection is closed.
func (o *Orchestrator) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := o.health.Run(); err != nil && err != http.ErrServerClosed {
			o.log.Error("health server stopped", slog.String("error", err.Error()))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := o.gw.Run(ctx); err != nil && ctx.Err() == nil {
			o.log.Error("discord gateway stopped", slog.String("error", err.Error()))
		}
		o.health.SetDiscordConnected(false)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		o.dispatchPlatformEvents(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		o.gameSessionLoop(ctx)
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.health.Shutdown(shutdownCtx); err != nil {
		o.log.Debug("health server shutdown error", slog.String("error", err.Error()))
	}
	wg.Wait()
	return ctx.Err()
}

// dispatchPlatformEvents waits for the gateway's Ready signal, lists
// guild channels, resolves the configured routes against them, and
// then drains inbound platform chat for the P2W forwarder.
func (o *Orchestrator) dispatchPlatformEvents(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-o.gw.Ready():
	}
	o.health.SetDiscordConnected(true)

	channels, err := o.gw.ListChannels()
	if err != nil {
		o.log.Error("listing discord channels failed", slog.String("error", err.Error()))
	}
	listed := make([]bridge.PlatformChannel, len(channels))
	copy(listed, channels)

	pending := &bridge.PendingState{Routes: o.routes}
	rs := bridge.Resolve(pending, listed, o.gw.SelfUserID(), o.markup)
	for _, r := range rs.Unresolved {
		o.log.Warn("chat route did not resolve to a discord channel", slog.String("platform_channel", r.PlatformChannel))
	}
	o.resolved.Store(rs)
	o.setPresence(presence.ConnectedToRealm(o.cfg.Wow.Realm))

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-o.gw.Incoming():
			if !ok {
				return
			}
			o.handlePlatformMessage(msg)
		}
	}
}

func (o *Orchestrator) handlePlatformMessage(msg bridge.IncomingPlatformMessage) {
	if msg.AuthorID == o.gw.SelfUserID() || msg.IsBot || msg.IsDM {
		return
	}

	if strings.HasPrefix(msg.Content, ".") && o.cfg.Discord.EnableDotCommands {
		if o.dotCommandAllowed(msg.Content) {
			o.outboundWow <- bridge.OutboundWowMessage{ChatType: resources.ChatMsgSay, Sender: msg.AuthorName, Content: msg.Content}
		}
		return
	}

	if len(msg.Content) <= 100 {
		if handled := o.handleBangCommand(msg); handled {
			return
		}
	}

	rs := o.resolved.Load()
	if rs == nil {
		return
	}
	route, ok := rs.PlatformToWow[msg.ChannelID]
	if !ok {
		return
	}
	if route.Route.FilterP2W.ShouldFilter(msg.Content) {
		return
	}

	translated, _ := o.markup.ToWow(msg.Content)

	formatter := &bridge.Formatter{Template: route.Route.FormatP2W}
	lines := formatter.SplitMessage(bridge.Values{Time: time.Now(), User: msg.AuthorName, Message: translated, Channel: route.Route.Wow.String()})
	for _, line := range lines {
		o.outboundWow <- bridge.OutboundWowMessage{
			ChatType:    chatTypeForRouteKind(route.Route.Wow.Kind),
			ChannelName: route.Route.Wow.Name,
			Sender:      msg.AuthorName,
			Content:     line,
		}
	}
}

func (o *Orchestrator) dotCommandAllowed(content string) bool {
	whitelist := o.cfg.Discord.DotCommandsWhitelist
	if len(whitelist) == 0 {
		return true
	}
	verb := strings.ToLower(strings.TrimPrefix(strings.Fields(content)[0], "."))
	for _, w := range whitelist {
		if strings.EqualFold(w, verb) {
			return true
		}
	}
	return false
}

// handleBangCommand recognizes the !who/!gmotd/!help command set.
func (o *Orchestrator) handleBangCommand(msg bridge.IncomingPlatformMessage) bool {
	trimmed := msg.Content
	if !strings.HasPrefix(trimmed, "!") && !strings.HasPrefix(trimmed, "?") {
		return false
	}
	fields := strings.Fields(trimmed[1:])
	if len(fields) == 0 {
		return false
	}
	command := strings.ToLower(fields[0])
	arg := ""
	if len(fields) > 1 {
		arg = strings.Join(fields[1:], " ")
	}

	switch command {
	case "who", "online":
		o.reactToCommand(msg, "👀")
		o.respondToPlatform(msg.ChannelID, o.whoOnlineText(arg))
	case "gmotd":
		o.reactToCommand(msg, "📜")
		o.respondToPlatform(msg.ChannelID, o.cachedMOTDText())
	case "help":
		o.respondToPlatform(msg.ChannelID, "Commands: !who [name], !gmotd, !help")
	default:
		return false
	}
	return true
}

// reactToCommand acknowledges a recognized command with an emoji while
// its text reply is still being assembled. Best-effort: a missing
// message id (e.g. in tests) or a reaction failure is not fatal.
func (o *Orchestrator) reactToCommand(msg bridge.IncomingPlatformMessage, emoji string) {
	if msg.MessageID == "" {
		return
	}
	if err := o.gw.React(msg.ChannelID, msg.MessageID, emoji); err != nil {
		o.log.Debug("reacting to command failed", slog.String("error", err.Error()))
	}
}

func (o *Orchestrator) respondToPlatform(channelID, text string) {
	text = o.markup.ToPlatform(text, true)
	if err := o.gw.SendAction(bridge.PlatformAction{ChannelID: channelID, Content: text}); err != nil {
		o.log.Error("sending command response failed", slog.String("error", err.Error()))
	}
}

func (o *Orchestrator) whoOnlineText(filterName string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.roster == nil {
		return "Roster not loaded yet."
	}
	var names []string
	for _, m := range o.roster.Members {
		if !m.Online || m.GUID == o.selfGUID {
			continue
		}
		if filterName != "" && !strings.Contains(strings.ToLower(m.Name), strings.ToLower(filterName)) {
			continue
		}
		names = append(names, m.Name)
	}
	if len(names) == 0 {
		return "No one matching is online."
	}
	return fmt.Sprintf("%d online: %s", len(names), strings.Join(names, ", "))
}

func (o *Orchestrator) cachedMOTDText() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.motd == "" {
		return "No guild MOTD cached yet."
	}
	return o.motd
}

// gameSessionLoop runs task 1: authenticate against the realm list,
// connect to the chosen world server, and service it until it drops,
// then retries with exponential backoff. The backoff is never reset, so
// the delay grows after every ended session, including ones that
// connected, until it reaches the 5-minute cap.
func (o *Orchestrator) gameSessionLoop(ctx context.Context) {
	backoff := bridge.NewBackoff()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		o.setPresence(presence.Connecting())
		sessionID := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
		if err := o.runOneSession(ctx, sessionID); err != nil && ctx.Err() == nil {
			o.log.Error("world session ended", slog.String("session_id", sessionID), slog.String("error", err.Error()))
		}
		o.health.SetWowConnected(false)
		o.setPresence(presence.Disconnected())

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff.Next()):
		}
	}
}

func (o *Orchestrator) runOneSession(ctx context.Context, sessionID string) error {
	log := o.log.With(slog.String("session_id", sessionID))

	connector := &realm.Connector{
		Address:  o.cfg.Wow.Realmlist,
		Account:  o.cfg.Wow.Account,
		Password: o.cfg.Wow.Password,
		Logger:   log,
	}
	result, err := connector.Authenticate(ctx)
	if err != nil {
		return fmt.Errorf("orchestrator: realm authentication: %w", err)
	}

	var address string
	for _, r := range result.Realms {
		if strings.EqualFold(r.Name, o.cfg.Wow.Realm) {
			address = r.Address
			break
		}
	}
	if address == "" {
		return fmt.Errorf("orchestrator: realm %q not found in realm list", o.cfg.Wow.Realm)
	}

	dialer := net.Dialer{Timeout: 15 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("orchestrator: dialing world server %s: %w", address, err)
	}
	defer conn.Close()

	sess := world.NewSession(conn, o.cfg.Wow.Account, result.SessionKey[:], o.cfg.Wow.Character, log)
	o.health.SetWowConnected(true)

	sessionErr := make(chan error, 1)
	go func() { sessionErr <- sess.Run(ctx) }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sessionErr:
			return err
		case out := <-o.outboundWow:
			if err := o.wowLimiter.Wait(ctx); err != nil {
				return ctx.Err()
			}
			sendOutboundWow(sess, out, o.selfLanguageSnapshot())
		case frame, ok := <-sess.Frames():
			if !ok {
				return fmt.Errorf("orchestrator: world session closed")
			}
			o.handleWorldFrame(sess, frame)
		}
	}
}

// handleWorldFrame decodes and routes everything the world session
// doesn't already consume internally (chat, guild, object-update, and
// the steady-state join/roster traffic fired once in-world).
func (o *Orchestrator) handleWorldFrame(sess *world.Session, f world.Frame) {
	switch f.Opcode {
	case world.SMSGMessageChat:
		o.handleChatMessage(sess, f.Payload, false)
	case world.SMSGGMMessageChat:
		o.handleChatMessage(sess, f.Payload, true)
	case world.SMSGNameQuery:
		o.handleNameQuery(f.Payload)
	case world.SMSGGuildQuery:
		o.handleGuildQuery(f.Payload)
	case world.SMSGGuildRoster:
		o.handleGuildRoster(f.Payload)
	case world.SMSGGuildEvent:
		o.handleGuildEvent(sess, f.Payload)
	case world.SMSGInvalidatePlayer:
		o.handleInvalidatePlayer(f.Payload)
	case world.SMSGUpdateObject:
		o.handleUpdateObject(sess, f.Payload)
	case world.SMSGInitWorldStates:
		o.onEnterWorld(sess)
	}
}

// onEnterWorld runs on every SMSG_INIT_WORLD_STATES frame: it records
// the bot's own GUID and language, joins every custom channel a route
// references and requests the guild roster. It sends no
// CMSG_GUILD_QUERY, so guild rank names are not requested.
func (o *Orchestrator) onEnterWorld(sess *world.Session) {
	o.mu.Lock()
	for _, c := range sess.Characters() {
		if strings.EqualFold(c.Name, o.cfg.Wow.Character) {
			o.selfGUID = c.GUID
			o.selfLanguage = resources.LanguageForRace(c.Race)
			break
		}
	}
	o.triedToSit = false
	o.mu.Unlock()

	for _, name := range o.router.ChannelsToJoin {
		sess.JoinChannel(name)
	}
	sess.SendFrame(world.CMSGGuildRoster, nil)
}

func (o *Orchestrator) handleChatMessage(sess *world.Session, payload []byte, isGM bool) {
	decode := chat.Decode
	if isGM {
		decode = chat.DecodeGM
	}
	msg, err := decode(payload)
	if err != nil {
		if errors.Is(err, chat.ErrAddonMessage) {
			return
		}
		o.log.Warn("decoding chat message failed", slog.String("error", err.Error()))
		return
	}
	if !resources.KnownChatType(msg.Type) {
		return
	}
	if msg.Sender == o.selfGUIDSnapshot() && msg.Type != resources.ChatMsgSystem {
		return
	}

	if name, ok := o.chatResolver.Resolve(msg.Sender); ok || msg.Sender == 0 {
		o.routeChatMessage(msg, name)
		return
	}
	// Unresolved sender: queue behind a CMSG_NAME_QUERY round trip; the
	// reply handler flushes everything queued for this guid.
	if o.chatResolver.QueuePending(msg.Sender, msg) {
		sess.SendFrame(world.CMSGNameQuery, wire.WritePackedGUID(msg.Sender))
	}
}

func (o *Orchestrator) handleNameQuery(payload []byte) {
	resp, err := chat.DecodeNameQuery(payload)
	if err != nil {
		o.log.Warn("decoding name query failed", slog.String("error", err.Error()))
		return
	}
	if !resp.Known {
		return
	}
	queued := o.chatResolver.ResolveName(resp.GUID, resp.Name)
	for _, msg := range queued {
		o.routeChatMessage(msg, resp.Name)
	}
}

func (o *Orchestrator) routeChatMessage(msg *chat.Message, senderName string) {
	rs := o.resolved.Load()
	if rs == nil {
		return
	}
	routes := rs.RoutesForWow(msg.Type, msg.Channel)
	if len(routes) == 0 {
		return
	}

	hasSender := msg.Type != resources.ChatMsgSystem
	translated := o.markup.ToPlatform(msg.Text, hasSender)

	for _, route := range routes {
		if route.Route.FilterW2P.ShouldFilter(translated) {
			continue
		}
		formatter := &bridge.Formatter{Template: route.Route.FormatW2P}
		text := formatter.Format(bridge.Values{Time: time.Now(), User: senderName, Message: translated, Channel: msg.Channel})
		if err := o.gw.SendAction(bridge.PlatformAction{ChannelID: route.ChannelID, Content: text}); err != nil {
			o.log.Error("posting chat message to discord failed", slog.String("error", err.Error()))
		}
	}
}

func (o *Orchestrator) handleGuildQuery(payload []byte) {
	q, err := guild.DecodeQuery(payload)
	if err != nil {
		o.log.Warn("decoding guild query failed", slog.String("error", err.Error()))
		return
	}
	o.mu.Lock()
	o.guildID = q.GuildID
	o.rankNames = q.RankName
	o.mu.Unlock()
}

func (o *Orchestrator) handleGuildRoster(payload []byte) {
	r, err := guild.DecodeRoster(payload)
	if err != nil {
		o.log.Warn("decoding guild roster failed", slog.String("error", err.Error()))
		return
	}
	o.mu.Lock()
	o.roster = r
	o.motd = r.MOTD
	o.mu.Unlock()

	online := 0
	for _, m := range r.Members {
		if m.Online {
			online++
		}
	}
	o.setPresence(presence.GuildStats(online))
	o.renderDashboard(r)
}

func (o *Orchestrator) handleGuildEvent(sess *world.Session, payload []byte) {
	ev, err := guild.DecodeEvent(payload)
	if err != nil {
		o.log.Warn("decoding guild event failed", slog.String("error", err.Error()))
		return
	}
	name := resources.GuildEventName(ev.EventType)
	if name == "" {
		return
	}
	cfg, ok := o.cfg.Guild[name]
	if !ok || !cfg.Enabled {
		return
	}

	actor := ev.Actor()
	if ev.EventType != resources.GuildEventMotd && strings.EqualFold(actor, o.cfg.Wow.Character) {
		return
	}

	formatter := &bridge.Formatter{Template: cfg.Format}
	text := formatter.Format(bridge.Values{Time: time.Now(), User: actor, Target: ev.Target(), Message: ev.MOTDText()})
	text = o.markup.ToPlatform(text, true)

	rs := o.resolved.Load()
	if rs == nil {
		return
	}
	for _, route := range rs.RoutesForWow(resources.ChatMsgGuild, "") {
		if err := o.gw.SendAction(bridge.PlatformAction{ChannelID: route.ChannelID, Content: text}); err != nil {
			o.log.Error("posting guild event to discord failed", slog.String("error", err.Error()))
		}
	}

	sess.SendFrame(world.CMSGGuildRoster, nil)
}

func (o *Orchestrator) handleInvalidatePlayer(payload []byte) {
	if len(payload) < 8 {
		return
	}
	guid, _, err := wire.ReadPackedGUID(payload)
	if err != nil {
		return
	}
	o.chatResolver.Invalidate(guid)
}

func (o *Orchestrator) handleUpdateObject(sess *world.Session, payload []byte) {
	if !o.cfg.Quirks.Sit {
		return
	}
	o.mu.Lock()
	alreadySat := o.triedToSit
	o.mu.Unlock()
	if alreadySat {
		return
	}

	snap, err := objupdate.Parse(payload, o.selfGUIDSnapshot())
	if err != nil || snap.PlayerPosition == nil {
		return
	}
	chair, ok := objupdate.NearestChair(*snap.PlayerPosition, snap.Chairs)
	if !ok {
		return
	}

	o.mu.Lock()
	o.triedToSit = true
	o.mu.Unlock()

	body := make([]byte, 8)
	for i := 0; i < 8; i++ {
		body[i] = byte(chair.GUID >> uint(i*8))
	}
	sess.SendFrame(world.CMSGGameobjUse, body)
}

func (o *Orchestrator) selfGUIDSnapshot() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.selfGUID
}

func (o *Orchestrator) selfLanguageSnapshot() resources.Language {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.selfLanguage
}

func (o *Orchestrator) setPresence(s presence.Status) {
	if err := o.gw.SetPresence(s.Text(), s.IsOnline()); err != nil {
		o.log.Debug("updating discord presence failed", slog.String("error", err.Error()))
	}
}

// renderDashboard posts the guild roster dashboard as a new message in
// the configured channel on every roster refresh. Earlier dashboard
// messages are neither edited nor removed, and no channel history is
// scanned.
func (o *Orchestrator) renderDashboard(r *guild.Roster) {
	if !o.cfg.GuildDashboard.Enabled {
		return
	}
	var lines []string
	for _, m := range r.Members {
		status := "offline"
		if m.Online {
			status = "online"
		}
		lines = append(lines, fmt.Sprintf("%s - %s", m.Name, status))
	}
	text := "**Guild Roster**\n" + strings.Join(lines, "\n")
	if err := o.gw.SendAction(bridge.PlatformAction{ChannelID: o.cfg.GuildDashboard.Channel, Content: text}); err != nil {
		o.log.Error("posting dashboard update failed", slog.String("error", err.Error()))
	}
}

func sendOutboundWow(sess *world.Session, msg bridge.OutboundWowMessage, language resources.Language) {
	body := make([]byte, 0, len(msg.Content)+len(msg.ChannelName)+16)
	body = append(body, msg.ChatType, 0, 0, 0)
	body = appendU32(body, uint32(language))
	if msg.ChatType == resources.ChatMsgChannel {
		body = wire.AppendCString(body, msg.ChannelName)
	}
	body = wire.AppendCString(body, msg.Content)
	sess.SendFrame(world.CMSGMessageChat, body)
}

func appendU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func chatTypeForRouteKind(kind string) uint8 {
	switch kind {
	case "guild":
		return resources.ChatMsgGuild
	case "officer":
		return resources.ChatMsgOfficer
	case "say":
		return resources.ChatMsgSay
	case "yell":
		return resources.ChatMsgYell
	case "emote":
		return resources.ChatMsgEmote
	case "whisper":
		return resources.ChatMsgWhisper
	default:
		return resources.ChatMsgChannel
	}
}


