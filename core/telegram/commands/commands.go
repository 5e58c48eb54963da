package commands

import "strings"

// Command describes a bot command for the Telegram menu and help text.
type Command struct {
	Description string
	// Usage is the example shown in help; defaults to the command name.
	Usage   string
	Hidden  bool
	Aliases []string
}

// Normalize lowercases a command token, strips any @botname suffix and
// ensures the leading slash. Normalize("/SW@wordbot") == "/sw".
func Normalize(token string) string {
	token, _, _ = strings.Cut(strings.TrimSpace(token), "@")
	if token == "" {
		return ""
	}
	if !strings.HasPrefix(token, "/") {
		token = "/" + token
	}
	return strings.ToLower(token)
}
