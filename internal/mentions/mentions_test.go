package mentions

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantUsers []string
		wantRoles []string
		wantHere  bool
	}{
		{
			name:    "no mentions",
			content: "hello world",
		},
		{
			name:      "single user mention",
			content:   "hey <@123456789012345678>!",
			wantUsers: []string{"123456789012345678"},
		},
		{
			name:      "nickname-style mention with bang",
			content:   "hey <@!123456789012345678>!",
			wantUsers: []string{"123456789012345678"},
		},
		{
			name:      "multiple user mentions",
			content:   "<@1> and <@2>",
			wantUsers: []string{"1", "2"},
		},
		{
			name:      "duplicate user mentions deduplicated",
			content:   "<@1> said <@1>",
			wantUsers: []string{"1"},
		},
		{
			name:      "single role mention",
			content:   "hey <@&99>",
			wantRoles: []string{"99"},
		},
		{
			name:      "duplicate role mentions deduplicated",
			content:   "<@&99> <@&99>",
			wantRoles: []string{"99"},
		},
		{
			name:     "@here detected",
			content:  "attention @here please read",
			wantHere: true,
		},
		{
			name:      "mixed mentions",
			content:   "<@1> <@&2> @here",
			wantUsers: []string{"1"},
			wantRoles: []string{"2"},
			wantHere:  true,
		},
		{
			name:    "user mention inside code block ignored",
			content: "```\n<@1>\n```",
		},
		{
			name:    "user mention inside inline code ignored",
			content: "use `<@1>` syntax",
		},
		{
			name:    "@here inside code block ignored",
			content: "```\n@here\n```",
		},
		{
			name:    "@here inside inline code ignored",
			content: "type `@here` to ping",
		},
		{
			name:      "mention outside code block still detected",
			content:   "```\ncode\n``` <@1>",
			wantUsers: []string{"1"},
		},
		{
			name:    "role mention inside inline code ignored",
			content: "`<@&1>`",
		},
		{
			name:    "non-numeric id ignored",
			content: "<@notanumber> <@&notanumber>",
		},
		{
			name:    "@here inside email not detected literally but substring still matches",
			content: "contact user@here.com for help",
			// Matches spec's plain-substring detection rule; callers that
			// need word-boundary precision filter false positives upstream.
			wantHere: true,
		},
		{
			name:     "@here with punctuation detected",
			content:  "hey @here, read this!",
			wantHere: true,
		},
		{
			name:    "empty content",
			content: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.content)

			if !sliceEqual(got.UserIDs, tt.wantUsers) {
				t.Errorf("UserIDs = %v, want %v", got.UserIDs, tt.wantUsers)
			}
			if !sliceEqual(got.RoleIDs, tt.wantRoles) {
				t.Errorf("RoleIDs = %v, want %v", got.RoleIDs, tt.wantRoles)
			}
			if got.MentionHere != tt.wantHere {
				t.Errorf("MentionHere = %v, want %v", got.MentionHere, tt.wantHere)
			}
		})
	}
}

func TestParseEveryone(t *testing.T) {
	got := Parse("@everyone check this out")
	if !got.MentionEveryone {
		t.Errorf("MentionEveryone = false, want true")
	}
}

func sliceEqual(a, b []string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
