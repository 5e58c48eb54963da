// Package render turns stored words into chat text.
//
// Rich output is Telegram MarkdownV2 with every user or model supplied
// string escaped. Plain output carries the same fields in the same order
// without markup and is sent with parsing disabled.
package render

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/m3rciful/wordbot/core/telegram/format"
	"github.com/m3rciful/wordbot/internal/words"
)

const (
	// MessageLimit is the longest text sent as a single message.
	MessageLimit = 4000
	// Line separates headers from bodies.
	Line = "━━━━━━━━━━━━━━"

	dayDivider   = "----------------------"
	groupRule    = "━━━━━━━━━━━━━━━━━━━━"
	entryDivider = "···············"
	dateLayout   = "Mon, Jan 2"
)

type fieldSpec struct {
	glyph string
	label string
	value func(Fields) string
}

var fieldSpecs = []fieldSpec{
	{"🗣", "Pronunciation", func(f Fields) string { return f.Pronunciation }},
	{"📖", "Meaning", func(f Fields) string { return f.Meaning }},
	{"✏️", "Examples", func(f Fields) string { return f.Examples }},
	{"🟢", "Synonyms", func(f Fields) string { return f.Synonyms }},
	{"🔴", "Antonyms", func(f Fields) string { return f.Antonyms }},
}

// Renderer formats dates in a fixed location.
type Renderer struct {
	loc *time.Location
}

// New returns a Renderer; a nil loc means UTC.
func New(loc *time.Location) Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return Renderer{loc: loc}
}

// Date formats t like "Mon, Jan 2" in the renderer's location.
func (r Renderer) Date(t time.Time) string {
	return t.In(r.location()).Format(dateLayout)
}

func (r Renderer) location() *time.Location {
	if r.loc == nil {
		return time.UTC
	}
	return r.loc
}

// Plain renders one entry without markup.
func (r Renderer) Plain(w words.Word) string {
	return strings.Join(r.plainLines(w, true), "\n")
}

// Rich renders one entry as MarkdownV2.
func (r Renderer) Rich(w words.Word) string {
	lines := []string{"🔷 " + format.Bold(strings.ToUpper(w.Word))}
	f := ParseFields(w.Description)
	for _, spec := range fieldSpecs {
		if v := spec.value(f); v != "" {
			lines = append(lines, spec.glyph+" "+format.Italic(spec.label+":")+" "+format.Escape(v))
		}
	}
	if w.AddedByName != "" {
		lines = append(lines, "👤 "+format.Escape("Added by "+w.AddedByName))
	}
	if !w.CreatedAt.IsZero() {
		lines = append(lines, "📅 "+format.Escape(r.Date(w.CreatedAt)))
	}
	return strings.Join(lines, "\n")
}

func (r Renderer) plainLines(w words.Word, withDate bool) []string {
	lines := []string{"🔷 " + strings.ToUpper(w.Word)}
	f := ParseFields(w.Description)
	for _, spec := range fieldSpecs {
		if v := spec.value(f); v != "" {
			lines = append(lines, spec.glyph+" "+spec.label+": "+v)
		}
	}
	if w.AddedByName != "" {
		lines = append(lines, "👤 Added by "+w.AddedByName)
	}
	if withDate && !w.CreatedAt.IsZero() {
		lines = append(lines, "📅 "+r.Date(w.CreatedAt))
	}
	return lines
}

// List renders ws grouped by calendar day. Groups keep the order in which
// their first entry appears and entries keep their input order.
func (r Renderer) List(title string, ws []words.Word) string {
	type group struct {
		date    string
		entries []words.Word
	}
	var groups []*group
	index := map[string]*group{}
	for _, w := range ws {
		key := r.Date(w.CreatedAt)
		g, ok := index[key]
		if !ok {
			g = &group{date: key}
			index[key] = g
			groups = append(groups, g)
		}
		g.entries = append(g.entries, w)
	}

	var b strings.Builder
	b.WriteString("✨ " + title + " ✨\n")
	for _, g := range groups {
		b.WriteString("\n📅 " + g.date + "\n" + groupRule + "\n")
		for i, w := range g.entries {
			if i > 0 {
				b.WriteString("\n" + entryDivider + "\n")
			}
			b.WriteString("\n" + strings.Join(r.plainLines(w, false), "\n") + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// DayReport renders the /dayN reply body.
func (r Renderer) DayReport(days int, ws []words.Word) string {
	blocks := make([]string, len(ws))
	for i, w := range ws {
		blocks[i] = r.Plain(w)
	}
	header := "⏳ Last " + strconv.Itoa(days) + " Days\n" + dayDivider + "\n\n"
	return header + strings.Join(blocks, "\n\n"+dayDivider+"\n\n")
}

// MatchList renders word names only, one per line.
func MatchList(ws []words.Word) string {
	lines := make([]string, 0, len(ws)+1)
	lines = append(lines, "🔍 "+strconv.Itoa(len(ws))+" matches:\n"+Line)
	for _, w := range ws {
		lines = append(lines, "🔷 "+strings.ToUpper(w.Word))
	}
	return strings.Join(lines, "\n")
}

// TextLen is the length of s as Telegram counts it, in UTF-16 code units.
func TextLen(s string) int {
	n := 0
	for _, r := range s {
		n += unitLen(r)
	}
	return n
}

func unitLen(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

// Chunk splits text into pieces of at most size UTF-16 units, cutting only
// between runes. Joining the pieces gives back text.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = MessageLimit
	}
	if TextLen(text) <= size {
		return []string{text}
	}
	var chunks []string
	for text != "" {
		cut, n := 0, 0
		for cut < len(text) {
			r, w := utf8.DecodeRuneInString(text[cut:])
			u := unitLen(r)
			if n+u > size && cut > 0 {
				break
			}
			cut += w
			n += u
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	return chunks
}
