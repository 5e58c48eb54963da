package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes an inline button. Unique and Data form callback data;
// InlineQuery, when set, makes the button prefill "@bot <query>" in the
// current chat instead.
type InlineBtn struct {
	Text        string
	Unique      string
	Data        string
	InlineQuery string
}

func (b InlineBtn) inline() tele.InlineButton {
	if b.InlineQuery != "" {
		return tele.InlineButton{Text: b.Text, InlineQueryChat: b.InlineQuery}
	}
	return tele.InlineButton{Text: b.Text, Unique: b.Unique, Data: b.Data}
}

// InlineButtons builds an inline keyboard with one button per row.
func InlineButtons(buttons []InlineBtn) *tele.ReplyMarkup {
	return InlineButtonsNPerRow(buttons, 1)
}

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn.
// A fresh markup is returned on every call since telebot rewrites callback
// data in place when sending.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = btn.inline()
		}
		inline = append(inline, r)
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}

// InlineButtonsNPerRow splits buttons into rows of up to n.
func InlineButtonsNPerRow(buttons []InlineBtn, n int) *tele.ReplyMarkup {
	if n < 1 {
		n = 1
	}
	var rows [][]InlineBtn
	for i := 0; i < len(buttons); i += n {
		end := min(i+n, len(buttons))
		rows = append(rows, buttons[i:end])
	}
	return InlineButtonsRows(rows...)
}
