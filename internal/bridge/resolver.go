package bridge

import (
	"fmt"
	"regexp"
	"strings"
)

// linkBase is the item/spell/quest/achievement database this bridge
// links rich-text WoW escapes to.
const linkBase = "https://db.ascension.gg"

var (
	reItemLink        = regexp.MustCompile(`\|c[0-9A-Fa-f]{8}\|Hitem:(\d+)[^|]*\|h\[([^\]]+)\]\|h\|r`)
	reSpellLink       = regexp.MustCompile(`\|c[0-9A-Fa-f]{8}\|H(?:spell|enchant|talent):(\d+)[^|]*\|h\[([^\]]+)\]\|h\|r`)
	reQuestLink       = regexp.MustCompile(`\|c[0-9A-Fa-f]{8}\|Hquest:(\d+)[^|]*\|h\[([^\]]+)\]\|h\|r`)
	reAchievementLink = regexp.MustCompile(`\|c[0-9A-Fa-f]{8}\|Hachievement:(\d+)[^|]*\|h\[([^\]]+)\]\|h\|r`)
	reTradeLink       = regexp.MustCompile(`\|c[0-9A-Fa-f]{8}\|H(?:trade|battlepet):(\d+)[^|]*\|h\[([^\]]+)\]\|h\|r`)

	reTextureEscape = regexp.MustCompile(`\|T[^|]*\|t`)
	reColorWrapped  = regexp.MustCompile(`\|c[0-9A-Fa-f]{8}([^|]*(?:\|[^cr][^|]*)*)\|r`)
	reColorOrphan   = regexp.MustCompile(`\|c[0-9A-Fa-f]{8}`)

	reEmojiToken = regexp.MustCompile(`:([A-Za-z0-9_]+):`)

	reUserMention = regexp.MustCompile(`<@!?(\d+)>`)
	reChannelMention = regexp.MustCompile(`<#(\d+)>`)
	reRoleMention = regexp.MustCompile(`<@&(\d+)>`)
	reCustomEmoji = regexp.MustCompile(`<a?:(\w+):(\d+)>`)

	markdownEscaper = strings.NewReplacer(
		"`", "\\`",
		"*", "\\*",
		"_", "\\_",
		"~", "\\~",
	)
)

// linkKinds maps each rich-text link regex to the query param the
// platform-side database URL expects.
var linkKinds = []struct {
	re   *regexp.Regexp
	kind string
}{
	{reItemLink, "item"},
	{reSpellLink, "spell"},
	{reQuestLink, "quest"},
	{reAchievementLink, "achievement"},
	{reTradeLink, "trade"},
}

// UserLookup resolves a platform user/role/channel id to a display
// name; ok is false when the id isn't known (the resolver leaves the
// raw mention text unchanged in that case).
type UserLookup func(id string) (name string, ok bool)

// EmojiLookup resolves a `:name:` token to a platform custom-emoji id.
type EmojiLookup func(name string) (id string, ok bool)

// Resolver translates between in-game rich text and platform markdown.
type Resolver struct {
	LookupUser    UserLookup
	LookupChannel UserLookup
	LookupRole    UserLookup
	LookupEmoji   EmojiLookup
}

// ToPlatform runs the W2P pipeline: rich-text links, texture/color
// escapes, markdown escaping (skipped for system messages, i.e. when
// hasSender is false), then known custom-emoji substitution.
func (r *Resolver) ToPlatform(text string, hasSender bool) string {
	out := text
	for _, lk := range linkKinds {
		out = lk.re.ReplaceAllStringFunc(out, func(m string) string {
			sub := lk.re.FindStringSubmatch(m)
			id, name := sub[1], sub[2]
			return fmt.Sprintf("[%s] (<%s?%s=%s>)", name, linkBase, lk.kind, id)
		})
	}

	out = reTextureEscape.ReplaceAllString(out, "")

	out = reColorWrapped.ReplaceAllString(out, "$1")
	out = reColorOrphan.ReplaceAllString(out, "")

	if hasSender {
		out = markdownEscaper.Replace(out)
	}

	if r.LookupEmoji != nil {
		out = reEmojiToken.ReplaceAllStringFunc(out, func(m string) string {
			name := m[1 : len(m)-1]
			if id, ok := r.LookupEmoji(name); ok {
				return fmt.Sprintf("<:%s:%s>", name, id)
			}
			return m
		})
	}

	return out
}

// ToWow runs the P2W pipeline: mentions, channel/role references, and
// custom emoji tokens are rewritten to their in-game-readable forms.
func (r *Resolver) ToWow(text string) (result string, unresolvedMention bool) {
	out := text

	out = reUserMention.ReplaceAllStringFunc(out, func(m string) string {
		sub := reUserMention.FindStringSubmatch(m)
		id := sub[1]
		if r.LookupUser != nil {
			if name, ok := r.LookupUser(id); ok {
				return "@" + name
			}
		}
		unresolvedMention = true
		return m
	})

	out = reChannelMention.ReplaceAllStringFunc(out, func(m string) string {
		sub := reChannelMention.FindStringSubmatch(m)
		id := sub[1]
		if r.LookupChannel != nil {
			if name, ok := r.LookupChannel(id); ok {
				return "#" + name
			}
		}
		return m
	})

	out = reRoleMention.ReplaceAllStringFunc(out, func(m string) string {
		sub := reRoleMention.FindStringSubmatch(m)
		id := sub[1]
		if r.LookupRole != nil {
			if name, ok := r.LookupRole(id); ok {
				return "@" + name
			}
		}
		return m
	})

	out = reCustomEmoji.ReplaceAllStringFunc(out, func(m string) string {
		sub := reCustomEmoji.FindStringSubmatch(m)
		return ":" + sub[1] + ":"
	})

	return out, unresolvedMention
}
