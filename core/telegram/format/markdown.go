package format

import (
	"regexp"
	"strings"
)

const mdV2Specials = "_*[]()~`>#+-=|{}.!"

var (
	mdV2Re   = regexp.MustCompile(`([` + classOf(mdV2Specials+"\\") + `])`)
	mdCodeRe = regexp.MustCompile("([`\\\\])")
)

// classOf escapes every rune so it can sit inside a character class; '-'
// would otherwise form a range.
func classOf(chars string) string {
	var b strings.Builder
	for _, r := range chars {
		b.WriteByte('\\')
		b.WriteRune(r)
	}
	return b.String()
}

// Escape escapes plain text for MarkdownV2 bodies.
func Escape(text string) string {
	return mdV2Re.ReplaceAllString(text, `\$1`)
}

// Bold wraps escaped text in MarkdownV2 bold markers.
func Bold(text string) string { return "*" + Escape(text) + "*" }

// Italic wraps escaped text in MarkdownV2 italic markers.
func Italic(text string) string { return "_" + Escape(text) + "_" }

// Code renders text as inline code.
func Code(text string) string {
	return "`" + mdCodeRe.ReplaceAllString(text, `\$1`) + "`"
}

// Repeat builds a divider line of n copies of r, escaped for MarkdownV2.
func Repeat(r rune, n int) string {
	if n <= 0 {
		return ""
	}
	return Escape(strings.Repeat(string(r), n))
}
