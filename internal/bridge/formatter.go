package bridge

import (
	"strings"
	"time"
	"unicode/utf8"
)

// maxMessageLength is the in-game chat packet's byte budget per line.
const maxMessageLength = 255

// Formatter applies a placeholder template with one replace pass per
// placeholder, in the order %time, %user, %message, %target, %channel,
// %rank, %achievement, and no fixpoint iteration: a substituted value
// is expanded again only by a placeholder replaced after it (a
// %message value containing "%user" stays literal, one containing
// "%target" is expanded).
type Formatter struct {
	Template string
}

// Values holds every placeholder Format understands; callers leave
// fields at their zero value when not applicable to the message kind.
type Values struct {
	Time          time.Time
	User          string
	Message       string
	Target        string
	Channel       string
	Rank          string
	Achievement   string
}

var replacer = strings.NewReplacer(
	"%time", "\x00TIME\x00",
	"%user", "\x00USER\x00",
	"%message", "\x00MESSAGE\x00",
	"%target", "\x00TARGET\x00",
	"%channel", "\x00CHANNEL\x00",
	"%rank", "\x00RANK\x00",
	"%achievement", "\x00ACHIEVEMENT\x00",
)

// Format substitutes every placeholder exactly once.
func (f *Formatter) Format(v Values) string {
	out := f.Template
	out = strings.ReplaceAll(out, "%time", v.Time.Format("15:04:05"))
	out = strings.ReplaceAll(out, "%user", v.User)
	out = strings.ReplaceAll(out, "%message", v.Message)
	out = strings.ReplaceAll(out, "%target", v.Target)
	out = strings.ReplaceAll(out, "%channel", v.Channel)
	out = strings.ReplaceAll(out, "%rank", v.Rank)
	out = strings.ReplaceAll(out, "%achievement", v.Achievement)
	return out
}

// overhead returns the byte length of the template with %message
// replaced by the empty string and every other placeholder expanded
// with v, used to compute how much room is left in a 255-byte packet
// for the message body.
func (f *Formatter) overhead(v Values) int {
	withoutMessage := v
	withoutMessage.Message = ""
	return len(f.Format(withoutMessage))
}

// SplitMessage formats body through the template and splits the result
// into lines that each fit in maxMessageLength bytes, never breaking a
// multi-byte UTF-8 scalar, preferring to break at the last ASCII space
// at or before the budget. A line that would start with '.' gets a
// leading space to avoid an accidental in-game dot-command.
func (f *Formatter) SplitMessage(v Values) []string {
	overhead := f.overhead(v)
	maxBody := maxMessageLength - overhead
	if maxBody <= 0 {
		maxBody = 1
	}

	var lines []string
	remaining := v.Message
	for len(remaining) > 0 {
		budget := maxBody
		if strings.HasPrefix(remaining, ".") && budget > 1 {
			budget-- // room for the leading space added below
		}
		if len(remaining) <= budget {
			lines = append(lines, remaining)
			break
		}

		cut := floorCharBoundary(remaining, budget)
		if space := lastASCIISpace(remaining[:cut]); space > 0 {
			cut = space
		}
		chunk := remaining[:cut]
		lines = append(lines, chunk)

		remaining = remaining[cut:]
		remaining = strings.TrimPrefix(remaining, " ")
	}

	for i, line := range lines {
		body := line
		if strings.HasPrefix(body, ".") {
			body = " " + body
		}
		each := v
		each.Message = body
		lines[i] = f.Format(each)
	}
	return lines
}

// floorCharBoundary returns the largest index <= max that lands on a
// UTF-8 scalar boundary in s.
func floorCharBoundary(s string, max int) int {
	if max >= len(s) {
		return len(s)
	}
	if max <= 0 {
		return 0
	}
	i := max
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// lastASCIISpace returns the index just after the last ASCII space in
// s, or 0 if none is found.
func lastASCIISpace(s string) int {
	idx := strings.LastIndexByte(s, ' ')
	if idx < 0 {
		return 0
	}
	return idx + 1
}
