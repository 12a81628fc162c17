package orchestrator

import (
	"log/slog"

	"github.com/innkeeper-bridge/innkeeper/internal/bridge"
	"github.com/innkeeper-bridge/innkeeper/internal/config"
)

// buildRoutes translates cfg.Chat.Channels into bridge.Route values,
// compiling each side's filter patterns into a bridge.Filter.
func buildRoutes(cfg *config.Config, log *slog.Logger) []*bridge.Route {
	routes := make([]*bridge.Route, 0, len(cfg.Chat.Channels))
	for _, ch := range cfg.Chat.Channels {
		route := &bridge.Route{
			Wow:             wowChannelFor(ch.Wow.Type, ch.Wow.Channel),
			PlatformChannel: ch.Discord.Channel,
			Direction:       bridge.ParseDirection(ch.Direction),
			FormatW2P:       ch.Wow.Format,
			FormatP2W:       ch.Discord.Format,
		}
		if len(ch.Wow.Filters) > 0 {
			route.FilterW2P = bridge.NewFilter(ch.Wow.Filters, log)
		}
		if len(ch.Discord.Filters) > 0 {
			route.FilterP2W = bridge.NewFilter(ch.Discord.Filters, log)
		}
		routes = append(routes, route)
	}
	return routes
}

func wowChannelFor(kind, name string) bridge.WowChannel {
	switch kind {
	case "guild", "officer", "say", "yell", "emote", "whisper", "system", "achievement", "guild_achievement":
		return bridge.WowChannel{Kind: kind}
	default:
		return bridge.WowChannel{Kind: "custom", Name: name}
	}
}
