package matcher

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// Keywords with punctuation or spaces, and anything outside ASCII word
// characters (CJK in particular), cannot use \b and fall back to substring.
var nonWord = regexp.MustCompile(`[^\w\s]|\s`)

type keyword struct {
	text string
	re   *regexp.Regexp
}

func (k keyword) matches(lowered string) bool {
	if k.re == nil {
		return strings.Contains(lowered, k.text)
	}
	return k.re.MatchString(lowered)
}

// Set is a compiled, immutable keyword list. The zero value and nil never
// match.
type Set struct {
	keywords []keyword
}

// New compiles keywords: trimmed, lower-cased, empties and duplicates dropped,
// order kept.
func New(keywords []string) *Set {
	cleaned := lo.Uniq(lo.FilterMap(keywords, func(kw string, _ int) (string, bool) {
		kw = strings.ToLower(strings.TrimSpace(kw))
		return kw, kw != ""
	}))

	return &Set{
		keywords: lo.Map(cleaned, func(kw string, _ int) keyword {
			if nonWord.MatchString(kw) {
				return keyword{text: kw}
			}
			return keyword{text: kw, re: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)}
		}),
	}
}

// Matches reports whether any keyword occurs in text.
func (s *Set) Matches(text string) bool {
	_, ok := s.Match(text)
	return ok
}

// Match returns the first keyword found in text.
func (s *Set) Match(text string) (string, bool) {
	if s == nil || len(s.keywords) == 0 || text == "" {
		return "", false
	}

	lowered := strings.ToLower(text)
	found, ok := lo.Find(s.keywords, func(k keyword) bool {
		return k.matches(lowered)
	})
	return found.text, ok
}

// Len returns the number of distinct keywords.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keywords)
}

// Empty reports whether the set has no keywords.
func (s *Set) Empty() bool { return s.Len() == 0 }

// Keywords returns the normalized keywords in order.
func (s *Set) Keywords() []string {
	if s == nil {
		return nil
	}
	return lo.Map(s.keywords, func(k keyword, _ int) string { return k.text })
}
