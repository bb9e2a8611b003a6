package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantCmd  string
		wantArgs []string
		wantOK   bool
	}{
		{name: "bare command", in: "/start", wantCmd: "start", wantOK: true},
		{name: "command with payload", in: "/start 123456789", wantCmd: "start", wantArgs: []string{"123456789"}, wantOK: true},
		{name: "bot mention stripped", in: "/start@IGVaultBot 42", wantCmd: "start", wantArgs: []string{"42"}, wantOK: true},
		{name: "uppercase normalized", in: "/LOGIN secret", wantCmd: "login", wantArgs: []string{"secret"}, wantOK: true},
		{name: "surrounding whitespace", in: "  /help  ", wantCmd: "help", wantOK: true},
		{name: "plain text", in: "hello there", wantOK: false},
		{name: "lone slash", in: "/", wantOK: false},
		{name: "empty", in: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, ok := parseCommand(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCmd, cmd)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
