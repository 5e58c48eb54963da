package render

import (
	"strings"
	"unicode"
)

// Fields are the labelled parts of a stored description.
type Fields struct {
	Pronunciation string
	Meaning       string
	Examples      string
	Synonyms      string
	Antonyms      string
}

var labels = map[string]string{
	"pronunciation": "pronunciation",
	"meaning":       "meaning",
	"definition":    "meaning",
	"example":       "examples",
	"examples":      "examples",
	"synonym":       "synonyms",
	"synonyms":      "synonyms",
	"antonym":       "antonyms",
	"antonyms":      "antonyms",
	"word":          "word",
}

// ParseFields splits a "Label: value" description back into fields. Lines
// without a label continue the previous field. A description with no known
// label is returned whole as the meaning.
func ParseFields(description string) Fields {
	description = strings.TrimSpace(description)
	parsed := map[string][]string{}
	var (
		current  string
		preamble []string
		labelled bool
	)
	for _, raw := range strings.Split(description, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if key, value, ok := labelOf(line); ok {
			labelled = true
			current = key
			if value != "" {
				parsed[key] = append(parsed[key], value)
			}
			continue
		}
		if current == "" {
			preamble = append(preamble, line)
			continue
		}
		parsed[current] = append(parsed[current], line)
	}
	if !labelled {
		return Fields{Meaning: description}
	}

	f := Fields{
		Pronunciation: join(parsed["pronunciation"]),
		Meaning:       join(parsed["meaning"]),
		Examples:      join(parsed["examples"]),
		Synonyms:      join(parsed["synonyms"]),
		Antonyms:      join(parsed["antonyms"]),
	}
	if f.Meaning == "" {
		f.Meaning = join(preamble)
	}
	return f
}

func labelOf(line string) (string, string, bool) {
	s := strings.TrimLeftFunc(line, func(r rune) bool { return !unicode.IsLetter(r) })
	label, value, ok := strings.Cut(s, ":")
	if !ok {
		return "", "", false
	}
	label = strings.ToLower(strings.Trim(label, "*_ "))
	key, known := labels[label]
	if !known {
		return "", "", false
	}
	return key, strings.TrimSpace(strings.Trim(value, "*_ ")), true
}

func join(lines []string) string {
	return strings.Join(lines, "\n")
}
