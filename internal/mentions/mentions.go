// Package mentions extracts user, role, and @everyone/@here mentions
// from Discord message content ahead of P2W translation. Mention
// syntax: <@id>/<@!id> for users, <@&id> for roles, numeric snowflake
// ids. Mentions inside code blocks (``` ```) and inline code (` `) are
// ignored.
package mentions

import (
	"regexp"
	"strings"
)

// ParseResult holds the extracted mentions from a message.
type ParseResult struct {
	UserIDs       []string
	RoleIDs       []string
	MentionHere   bool
	MentionEveryone bool
}

var (
	userMentionRe = regexp.MustCompile(`<@!?(\d+)>`)
	roleMentionRe = regexp.MustCompile(`<@&(\d+)>`)
	codeBlockRe   = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe  = regexp.MustCompile("`[^`]+`")
)

// Parse extracts mentions from message content, ignoring mentions
// inside code blocks and inline code spans. Results are deduplicated.
func Parse(content string) ParseResult {
	var result ParseResult

	stripped := codeBlockRe.ReplaceAllString(content, "")
	stripped = inlineCodeRe.ReplaceAllString(stripped, "")

	seen := map[string]bool{}
	for _, match := range userMentionRe.FindAllStringSubmatch(stripped, -1) {
		id := match[1]
		if !seen[id] {
			seen[id] = true
			result.UserIDs = append(result.UserIDs, id)
		}
	}

	seenRoles := map[string]bool{}
	for _, match := range roleMentionRe.FindAllStringSubmatch(stripped, -1) {
		id := match[1]
		if !seenRoles[id] {
			seenRoles[id] = true
			result.RoleIDs = append(result.RoleIDs, id)
		}
	}

	if strings.Contains(stripped, "@here") {
		result.MentionHere = true
	}
	if strings.Contains(stripped, "@everyone") {
		result.MentionEveryone = true
	}

	return result
}
