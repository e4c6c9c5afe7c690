package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		raw  any
		want string
	}{
		{"nil", nil, ""},
		{"empty", "", ""},
		{"channel marker", "-1001234567890", "1234567890"},
		{"plain", "1234567890", "1234567890"},
		{"basic group", "-4567", "4567"},
		{"whitespace", " -100 123 456 ", "123456"},
		{"trailing garbage", "123abc", "123"},
		{"letters only", "abc", ""},
		{"marker only", "-100", ""},
		{"int64", int64(-1001234567890), "1234567890"},
		{"int", 42, "42"},
		{"zero", 0, "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.raw))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	for _, raw := range []any{"-1001234567890", "-1001001234", " -42 ", "777", "x1", nil, int64(-100500)} {
		once := Normalize(raw)
		assert.Equal(t, once, Normalize(once), "raw=%v", raw)
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("-1001234567890", "1234567890"))
	assert.True(t, Equal(int64(1234567890), "-1001234567890"))
	assert.False(t, Equal("", ""))
	assert.False(t, Equal(nil, "0"))
	assert.False(t, Equal("123", "1234"))
}

func TestParseListAndSet(t *testing.T) {
	raw := ParseList(" -1001001, 2002 ,,-1001001 , 3003")
	assert.Equal(t, []string{"-1001001", "2002", "-1001001", "3003"}, raw)

	assert.Equal(t, []string{"1001", "2002", "3003"}, NormalizeList(raw))

	set := NewSet(raw)
	assert.True(t, set.Has("-1001001"))
	assert.True(t, set.Has("1001"))
	assert.True(t, set.Has(int64(2002)))
	assert.False(t, set.Has(""))
	assert.False(t, set.Empty())
	assert.True(t, NewSet(nil).Empty())
}
