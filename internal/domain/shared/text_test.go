package shared

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "hola", 10, "hola"},
		{"ascii", "abcdef", 3, "abc"},
		{"multibyte kept whole", "añoñó", 3, "año"},
		{"exact", "ñandú", 5, "ñandú"},
		{"invalid bytes replaced", "ok\xffok", 10, "ok\uFFFDok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateText(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}

	long := "gateway error:" + strings.Repeat("ó", 300)
	got := TruncateText(long, 255)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 255, utf8.RuneCountInString(got))
}
