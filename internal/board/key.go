// Package board derives leaderboard partition identities from filter
// dimensions.
package board

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/ryotaka/kanasprint/internal/model"
)

const maxNameLen = 120

// DateFormat is the calendar-date component of daily partition keys.
const DateFormat = "2006-01-02"

// Key derives a deterministic partition identifier for one scope. Daily
// partitions embed the calendar date, so they roll over at local midnight
// with no reset step.
func Key(scope model.Scope, fc model.FilterContext, date string) string {
	diff := fc.Difficulty
	if diff == "" {
		diff = model.DifficultyAll
	}
	switch scope {
	case model.ScopeCategory:
		return fmt.Sprintf("category_%s_%s", diff, nameOrAll(fc.Category))
	case model.ScopeTheme:
		return fmt.Sprintf("theme_%s_%s", diff, nameOrAll(fc.Theme))
	case model.ScopeDaily:
		return fmt.Sprintf("daily_%s_%s_%s", diff, nameOrAll(fc.DailyTheme), date)
	default:
		return fmt.Sprintf("overall_%s", diff)
	}
}

// KeysFor returns the partition key for every scope, in fan-out order.
func KeysFor(fc model.FilterContext, date string) map[model.Scope]string {
	keys := make(map[model.Scope]string, len(model.Scopes))
	for _, scope := range model.Scopes {
		keys[scope] = Key(scope, fc, date)
	}
	return keys
}

func nameOrAll(name string) string {
	if name == "" || name == "all" {
		return "all"
	}
	return SanitizeName(name)
}

// SanitizeName normalizes a free-text name into a well-formed partition
// identifier component: NFKC width/compatibility folding, whitespace runs
// collapsed to a single underscore, everything outside letters, digits and
// "-_." stripped, bounded length. Idempotent, and never empty for non-empty
// input.
func SanitizeName(name string) string {
	folded := norm.NFKC.String(name)
	var b strings.Builder
	lastWasSep := false
	for _, r := range folded {
		switch {
		case unicode.IsSpace(r):
			if !lastWasSep && b.Len() > 0 {
				b.WriteRune('_')
			}
			lastWasSep = true
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
			lastWasSep = false
		default:
			// Path-hostile and wildcard runes are dropped.
		}
	}
	out := strings.TrimRight(b.String(), "_")
	runes := []rune(out)
	if len(runes) > maxNameLen {
		out = strings.TrimRight(string(runes[:maxNameLen]), "_")
	}
	if out == "" && name != "" {
		return "x"
	}
	return out
}

// DailyTheme picks the theme of the day: a 32-bit FNV-1a mix of the date
// string, reduced modulo the sorted theme list. Pure in its inputs, so the
// same date always maps to the same theme for a given corpus.
func DailyTheme(date string, sortedThemes []string) string {
	if len(sortedThemes) == 0 {
		return ""
	}
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	hash := uint32(offset32)
	for i := 0; i < len(date); i++ {
		hash ^= uint32(date[i])
		hash *= prime32
	}
	return sortedThemes[hash%uint32(len(sortedThemes))]
}
