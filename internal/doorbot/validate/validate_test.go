package validate_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BrandonDHaskell/doorbot/internal/doorbot/validate"
)

func TestIsTag(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"0", true},
		{"1001", true},
		{"0123", true},
		{strings.Repeat("9", 64), true},
		{"", false},
		{"abc", false},
		{"12a4", false},
		{" 1234", false},
		{"1234 ", false},
		{"1234\n", false},
		{"-12", false},
		{"12.5", false},
		{"١٢٣", false}, // Arabic-Indic digits are not ASCII
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, validate.IsTag(tc.in), "IsTag(%q)", tc.in)
	}
}

func TestIsTag_AllDigitStrings(t *testing.T) {
	for i := 0; i < 2000; i += 7 {
		s := strings.Repeat("0", i%3) + strconv.Itoa(i)
		assert.True(t, validate.IsTag(s), "IsTag(%q)", s)
		assert.False(t, validate.IsTag(s+"x"), "IsTag(%q)", s+"x")
	}
}

func TestIsName(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"Alice", true},
		{"Foo Bar", true},
		{"cleanroom.door", true},
		{"front-door", true},
		{"J. R. R. Tolkien", true},
		{"under_score", true},
		{"Zoë Ångström", true},
		{"tab\there", true},
		{"Ada\u00a0King", true},
		{"Em\u2003Space", true},
		{"line\u2028sep", true},
		{"unit\x1fsep", true},
		{"next\u0085line", true},
		{"\u00a0", true},
		{"zero\u200bwidth", false},
		{"", false},
		{"semi;colon", false},
		{"Robert'); DROP TABLE members;--", false},
		{"slash/door", false},
		{"percent%", false},
		{"comma,name", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, validate.IsName(tc.in), "IsName(%q)", tc.in)
	}
}
