// Package presence translates the bridge's connection-lifecycle
// activity into the platform's presence API: a single "what is the bot
// doing right now" status string, derived from the game-session state
// machine rather than any per-user tracking.
package presence

import "fmt"

// Status is one of the activity phases the game-session task can be
// in, in the order the orchestrator's presence forwarder expects to
// see them.
type Status struct {
	kind       string
	realmName  string
	onlineCount int
}

// Connecting reports that the bridge is dialing the realm/world server.
func Connecting() Status { return Status{kind: "connecting"} }

// Disconnected reports that the world connection dropped and a
// reconnect is pending.
func Disconnected() Status { return Status{kind: "disconnected"} }

// ConnectedToRealm reports that the bridge is in-world on the named
// realm.
func ConnectedToRealm(realmName string) Status {
	return Status{kind: "connected_to_realm", realmName: realmName}
}

// GuildStats reports the current online-member count, shown once the
// guild roster has loaded.
func GuildStats(onlineCount int) Status {
	return Status{kind: "guild_stats", onlineCount: onlineCount}
}

// Text renders the status as the platform presence text.
func (s Status) Text() string {
	switch s.kind {
	case "connecting":
		return "Connecting to Azeroth..."
	case "disconnected":
		return "Disconnected"
	case "connected_to_realm":
		return fmt.Sprintf("on %s", s.realmName)
	case "guild_stats":
		return fmt.Sprintf("%d online", s.onlineCount)
	default:
		return ""
	}
}

// IsOnline reports whether the platform presence indicator should show
// online (true) or idle/invisible (false) for this status.
func (s Status) IsOnline() bool {
	return s.kind == "connected_to_realm" || s.kind == "guild_stats"
}
