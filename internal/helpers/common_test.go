package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "single line", in: "just 1.37.0", want: "just 1.37.0"},
		{name: "multi line", in: "deno 2.1.4\nv8 12.9\ntypescript 5.6", want: "deno 2.1.4"},
		{name: "crlf", in: "jq-1.7.1\r\n", want: "jq-1.7.1"},
		{name: "surrounding whitespace", in: "  uv 0.5.2\t\n", want: "uv 0.5.2"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FirstLine(tt.in))
		})
	}
}
