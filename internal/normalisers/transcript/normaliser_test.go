package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	n := New()
	require.NotNil(t, n)
	assert.Equal(t, "transcript", n.Name())
	assert.False(t, n.bracketStamps)

	assert.True(t, New(WithBracketStamps()).bracketStamps)
}

func TestClean_Scenario(t *testing.T) {
	assert.Equal(t, "Hello world foo", Clean("12.34 - Hello   world\n56.78 - foo"))
}

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", " \n\t ", ""},
		{"no timestamps", "just  some\ttext", "just some text"},
		{"integer dash content kept", "12.34 - we look at the\n200-day moving average", "we look at the 200-day moving average"},
		{"integer subtraction kept", "3 - 1 is the spread width", "3 - 1 is the spread width"},
		{"colon separator", "5.50: colon", "colon"},
		{"no space before separator", "1.50- first\n2.75 -second", "first second"},
		{"en dash separator", "3.00 – dash", "dash"},
		{"pipe separator", "4.25 | piped", "piped"},
		{"indented lines", "  0.00 - a\n\t1.00 - b", "a b"},
		{"number mid line kept", "0.00 - buy 10 - 20 delta", "buy 10 - 20 delta"},
		{"trailing newline", "0.00 - end\n", "end"},
		{"crlf", "0.00 - one\r\n1.00 - two\r\n", "one two"},
		{"number without separator kept", "500 shares", "500 shares"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.input))
		})
	}
}

func TestNormalise_BracketStamps(t *testing.T) {
	input := "[00:01] intro [01:02:03] theta decay"

	assert.Equal(t, input, New().Normalise(input))
	assert.Equal(t, "intro theta decay", New(WithBracketStamps()).Normalise(input))
}

func TestNormalise_Idempotent(t *testing.T) {
	n := New()
	once := n.Normalise("1.00 - sell   the\n2.00 - premium")
	assert.Equal(t, once, n.Normalise(once))
}
