package bridge

import "strings"

// wowKey is the index key for wow_to_platform: chat type plus an
// optional lowercased channel name (only meaningful for Custom
// channels, where multiple channel names share the chat type byte).
type wowKey struct {
	chatType uint8
	channel  string
}

// Router holds the two direction-indexed route tables built from
// configuration. It is immutable after construction and safe for
// concurrent read access from every forwarder.
type Router struct {
	wowToPlatform map[wowKey][]*Route
	platformToWow map[string][]*Route

	// ChannelsToJoin is the set of custom WoW channel names any route
	// references, computed once at construction.
	ChannelsToJoin []string
}

// chatTypeForKind maps a WowChannel.Kind to the wire chat-type byte used as
// the wow_to_platform index key (Custom channels key off the Channel
// chat type, disambiguated further by channel name).
var chatTypeForKind = map[string]uint8{
	"guild": 0x04, "officer": 0x05, "say": 0x01, "yell": 0x06,
	"emote": 0x0A, "whisper": 0x07, "system": 0x00,
	"achievement": 0x30, "guild_achievement": 0x31, "custom": 0x11,
}

// NewRouter builds both indices from a flat route list.
func NewRouter(routes []*Route) *Router {
	r := &Router{
		wowToPlatform: make(map[wowKey][]*Route),
		platformToWow: make(map[string][]*Route),
	}

	seenChannels := make(map[string]bool)
	for _, route := range routes {
		chatType := chatTypeForKind[route.Wow.Kind]

		if route.Direction == Both || route.Direction == WowToPlatform {
			key := wowKey{chatType: chatType}
			if route.Wow.Kind == "custom" {
				key.channel = strings.ToLower(route.Wow.Name)
			}
			r.wowToPlatform[key] = append(r.wowToPlatform[key], route)
		}

		if route.Direction == Both || route.Direction == PlatformToWow {
			key := strings.ToLower(route.PlatformChannel)
			r.platformToWow[key] = append(r.platformToWow[key], route)
		}

		if route.Wow.Kind == "custom" && !seenChannels[route.Wow.Name] {
			seenChannels[route.Wow.Name] = true
			r.ChannelsToJoin = append(r.ChannelsToJoin, route.Wow.Name)
		}
	}
	return r
}

// RoutesForWow returns every route that should receive a WoW-origin
// message of the given chat type (and, for custom channels, name).
func (r *Router) RoutesForWow(chatType uint8, channelName string) []*Route {
	if routes, ok := r.wowToPlatform[wowKey{chatType: chatType, channel: strings.ToLower(channelName)}]; ok {
		return routes
	}
	return r.wowToPlatform[wowKey{chatType: chatType}]
}

// RoutesForPlatform returns every route configured for the given
// platform channel name.
func (r *Router) RoutesForPlatform(channelName string) []*Route {
	return r.platformToWow[strings.ToLower(channelName)]
}
