package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Separator joins the unique key and payload in callback data.
const Separator = "|"

// Encode builds callback data in the form telebot produces for inline buttons.
func Encode(unique, payload string) string {
	if payload == "" {
		return "\f" + unique
	}
	return "\f" + unique + Separator + payload
}

// Parse splits raw callback data into unique key and payload. Both the
// telebot form (\f<unique>|<payload>) and bare <unique>|<payload> are accepted.
func Parse(data string) (string, string) {
	data = strings.TrimPrefix(data, "\f")
	unique, payload, _ := strings.Cut(data, Separator)
	return strings.TrimSpace(unique), payload
}

// ParseCallbackData parses cb, preferring the Unique field telebot fills in
// for handlers registered by unique key.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	return Parse(cb.Data)
}

// CallbackPayload returns the payload after the separator.
func CallbackPayload(c tele.Context) string {
	_, p := ParseCallbackData(c.Callback())
	return p
}
