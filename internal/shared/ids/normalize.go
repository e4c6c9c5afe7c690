// Package ids turns the many shapes a Telegram identifier can take into one
// canonical form.
//
// The platform reports the same supergroup as 1234567890 (MTProto peer),
// -1001234567890 (Bot API chat id) or " -100 1234567890 " (hand-edited
// config). All of them normalize to "1234567890".
package ids

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/samber/lo"
)

const channelMarker = "-100"

// Normalize returns the canonical digit string for raw.
//
// Whitespace is removed, then a leading "-100" or a bare leading "-" is
// stripped and the leading run of digits is returned. Nil and malformed
// values yield "", which never equals a non-empty canonical ID.
func Normalize(raw any) string {
	var s string
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		s = v
	case int:
		s = strconv.FormatInt(int64(v), 10)
	case int32:
		s = strconv.FormatInt(int64(v), 10)
	case int64:
		s = strconv.FormatInt(v, 10)
	case uint:
		s = strconv.FormatUint(uint64(v), 10)
	case uint32:
		s = strconv.FormatUint(uint64(v), 10)
	case uint64:
		s = strconv.FormatUint(v, 10)
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}

	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	switch {
	case strings.HasPrefix(s, channelMarker):
		s = s[len(channelMarker):]
	case strings.HasPrefix(s, "-"):
		s = s[1:]
	}

	end := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if end < 0 {
		return s
	}
	return s[:end]
}

// Equal reports whether a and b name the same chat or user.
func Equal(a, b any) bool {
	na := Normalize(a)
	return na != "" && na == Normalize(b)
}

// NormalizeList normalizes every value, dropping empties and duplicates.
func NormalizeList(raw []string) []string {
	return lo.Uniq(lo.FilterMap(raw, func(item string, _ int) (string, bool) {
		id := Normalize(item)
		return id, id != ""
	}))
}

// ParseList splits a comma-separated config value into trimmed, non-empty items.
func ParseList(s string) []string {
	if s == "" {
		return []string{}
	}
	return lo.FilterMap(strings.Split(s, ","), func(part string, _ int) (string, bool) {
		part = strings.TrimSpace(part)
		return part, part != ""
	})
}

// Set is a lookup over canonical IDs.
type Set map[string]struct{}

// NewSet builds a Set from raw identifiers.
func NewSet(raw []string) Set {
	return lo.SliceToMap(NormalizeList(raw), func(id string) (string, struct{}) {
		return id, struct{}{}
	})
}

// Has reports whether the set contains the canonical form of id.
func (s Set) Has(id any) bool {
	n := Normalize(id)
	if n == "" {
		return false
	}
	_, ok := s[n]
	return ok
}

// Empty reports whether the set has no members.
func (s Set) Empty() bool { return len(s) == 0 }
