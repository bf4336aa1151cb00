package sanitizer

import (
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	emailPipeline = Pipeline{TrimAndNormalize, strings.ToLower}
	datePipeline  = Pipeline{strings.TrimSpace, truncateAtTimeSeparator}
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeEmail(email string) string {
	return emailPipeline.Apply(email)
}

// NormalizePhone collapses whitespace only. Guests type numbers in many local
// formats and the listing filter matches on substrings of what they typed.
func NormalizePhone(phone string) string {
	return TrimAndNormalize(phone)
}

// NormalizeDate reduces an ISO timestamp such as "2024-05-01T00:00:00Z" to its
// date part. Values without a 'T' are only trimmed.
func NormalizeDate(date string) string {
	return datePipeline.Apply(date)
}

func NormalizeTime(t string) string {
	return strings.TrimSpace(t)
}

func truncateAtTimeSeparator(s string) string {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	return s
}
