package bridge

import "strconv"

// PendingState holds routes whose platform-channel names haven't been
// matched to a channel id yet. It is consumed exactly once, on the
// platform gateway's first ChannelsListed event.
type PendingState struct {
	Routes []*Route
}

// PlatformChannel is a minimal view of a listed platform channel, as
// reported by the platform gateway's ChannelsListed event.
type PlatformChannel struct {
	ID   string
	Name string
}

// ResolvedRoute pairs a Route with the platform channel id it resolved
// to.
type ResolvedRoute struct {
	Route     *Route
	ChannelID string
}

// ResolvedState is the immutable, shareable result of matching
// PendingState's routes against the platform's listed channels. It is
// built at most once per process per invariant 1 in the data model.
type ResolvedState struct {
	WowToPlatform map[wowKey][]ResolvedRoute
	PlatformToWow map[string]*ResolvedRoute // keyed by channel id
	Resolver      *Resolver
	SelfUserID    string

	Unresolved []*Route
}

// Resolve matches pending.Routes against the listed platform channels:
// a route's platform_channel_name is tried first as a numeric id
// (exact match against a listed channel's ID), then as a
// case-insensitive name match.
func Resolve(pending *PendingState, listed []PlatformChannel, selfUserID string, resolver *Resolver) *ResolvedState {
	byID := make(map[string]PlatformChannel, len(listed))
	byName := make(map[string]PlatformChannel, len(listed))
	for _, c := range listed {
		byID[c.ID] = c
		byName[lowerASCII(c.Name)] = c
	}

	rs := &ResolvedState{
		WowToPlatform: make(map[wowKey][]ResolvedRoute),
		PlatformToWow: make(map[string]*ResolvedRoute),
		Resolver:      resolver,
		SelfUserID:    selfUserID,
	}

	for _, route := range pending.Routes {
		var channel PlatformChannel
		var found bool

		if _, err := strconv.ParseUint(route.PlatformChannel, 10, 64); err == nil {
			if c, ok := byID[route.PlatformChannel]; ok {
				channel, found = c, true
			}
		}
		if !found {
			if c, ok := byName[lowerASCII(route.PlatformChannel)]; ok {
				channel, found = c, true
			}
		}

		if !found {
			rs.Unresolved = append(rs.Unresolved, route)
			continue
		}

		resolved := ResolvedRoute{Route: route, ChannelID: channel.ID}

		if route.Direction == Both || route.Direction == WowToPlatform {
			chatType := chatTypeForKind[route.Wow.Kind]
			key := wowKey{chatType: chatType}
			if route.Wow.Kind == "custom" {
				key.channel = lowerASCII(route.Wow.Name)
			}
			rs.WowToPlatform[key] = append(rs.WowToPlatform[key], resolved)
		}

		if route.Direction == Both || route.Direction == PlatformToWow {
			rs.PlatformToWow[channel.ID] = &resolved
		}
	}

	return rs
}

// RoutesForWow returns every resolved route that should receive a
// WoW-origin message of the given chat type (and, for custom channels,
// name), mirroring Router.RoutesForWow against the resolved table.
func (rs *ResolvedState) RoutesForWow(chatType uint8, channelName string) []ResolvedRoute {
	if routes, ok := rs.WowToPlatform[wowKey{chatType: chatType, channel: lowerASCII(channelName)}]; ok {
		return routes
	}
	return rs.WowToPlatform[wowKey{chatType: chatType}]
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c - 'A' + 'a'
		}
	}
	return string(b)
}
