package bot

import (
	"strconv"
	"strings"

	"github.com/m3rciful/wordbot/core/telegram/commands"
)

// Command names.
const (
	CmdStart  = "/start"
	CmdHelp   = "/help"
	CmdTest   = "/test"
	CmdAdd    = "/w"
	CmdCancel = "/cancel"
	CmdDelete = "/delete"
	CmdSave   = "/sw"
	CmdAsk    = "/sq"
	CmdFind   = "/f"
	CmdDay    = "/day"
)

// DefaultDays is used when /dayN carries no usable N.
const DefaultDays = 7

// Entry pairs a command name with its menu metadata.
type Entry struct {
	Name string
	commands.Command
}

// Catalogue lists the commands in menu and help order.
func Catalogue() []Entry {
	return []Entry{
		{CmdSave, commands.Command{Description: "Search & save a word", Usage: "/sw <word>"}},
		{CmdAsk, commands.Command{Description: "Ask anything", Usage: "/sq <query>"}},
		{CmdAdd, commands.Command{Description: "Add a word manually", Usage: "/w"}},
		{CmdFind, commands.Command{Description: "Find saved words", Usage: "/f <term>"}},
		{CmdDelete, commands.Command{Description: "Delete a word", Usage: "/delete <word>"}},
		{"/day7", commands.Command{Description: "Words from the last N days", Usage: "/dayN"}},
		{CmdCancel, commands.Command{Description: "Cancel adding a word"}},
		{CmdHelp, commands.Command{Description: "Show help", Aliases: []string{CmdStart}}},
		{CmdTest, commands.Command{Description: "Check the bot is alive", Hidden: true}},
	}
}

var exact = map[string]struct{}{
	CmdStart:  {},
	CmdHelp:   {},
	CmdTest:   {},
	CmdAdd:    {},
	CmdCancel: {},
	CmdDelete: {},
}

// prefixes are checked in order; the rest of the token is the argument.
var prefixes = []string{CmdAsk, CmdSave, CmdFind}

// classify splits a slash command into its canonical name and argument.
// An unknown command yields an empty name.
func classify(text string) (string, string) {
	text = strings.TrimSpace(text)
	token := text
	if i := strings.IndexFunc(text, isSpace); i >= 0 {
		token = text[:i]
	}
	rest := strings.TrimSpace(text[len(token):])
	name := commands.Normalize(token)

	if _, ok := exact[name]; ok {
		return name, rest
	}

	head, _, _ := strings.Cut(token, "@")
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return p, strings.TrimSpace(head[len(p):] + " " + rest)
		}
	}
	if digits, ok := strings.CutPrefix(name, CmdDay); ok && digits != "" && allDigits(digits) {
		return CmdDay, digits
	}
	return "", ""
}

// parseDays returns N for /dayN, falling back to DefaultDays outside [1, 365].
func parseDays(arg string) int {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > 365 {
		return DefaultDays
	}
	return n
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
