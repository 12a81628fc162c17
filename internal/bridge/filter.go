package bridge

import (
	"log/slog"

	"github.com/dlclark/regexp2"
)

// Filter holds a set of look-around-capable regex patterns. Construction
// never fails: a pattern that doesn't compile is logged and dropped so a
// single typo in configuration can't take the bridge down.
type Filter struct {
	patterns []*regexp2.Regexp
}

// NewFilter compiles patterns, skipping (and logging) any that fail.
func NewFilter(patterns []string, log *slog.Logger) *Filter {
	if log == nil {
		log = slog.Default()
	}
	f := &Filter{}
	for _, p := range patterns {
		re, err := regexp2.Compile(p, regexp2.None)
		if err != nil {
			log.Warn("bridge: skipping invalid filter pattern", slog.String("pattern", p), slog.String("error", err.Error()))
			continue
		}
		f.patterns = append(f.patterns, re)
	}
	return f
}

// ShouldFilter reports whether text matches any configured pattern. A
// nil Filter (no patterns configured) never filters anything.
func (f *Filter) ShouldFilter(text string) bool {
	if f == nil {
		return false
	}
	for _, re := range f.patterns {
		if matched, err := re.MatchString(text); err == nil && matched {
			return true
		}
	}
	return false
}
