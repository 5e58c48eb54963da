package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineButtonsNPerRow(t *testing.T) {
	t.Parallel()

	btns := []InlineBtn{
		{Text: "a", Unique: "word", Data: "a"},
		{Text: "b", Unique: "word", Data: "b"},
		{Text: "c", Unique: "word", Data: "c"},
	}
	m := InlineButtonsNPerRow(btns, 2)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Len(t, m.InlineKeyboard[0], 2)
	assert.Len(t, m.InlineKeyboard[1], 1)
	assert.Equal(t, "word", m.InlineKeyboard[1][0].Unique)
	assert.Equal(t, "c", m.InlineKeyboard[1][0].Data)

	assert.Len(t, InlineButtons(btns).InlineKeyboard, 3)
}

func TestInlineQueryButton(t *testing.T) {
	t.Parallel()

	m := InlineButtons([]InlineBtn{{Text: "Add Another", InlineQuery: "/w "}})
	require.Len(t, m.InlineKeyboard, 1)
	b := m.InlineKeyboard[0][0]
	assert.Equal(t, "/w ", b.InlineQueryChat)
	assert.Empty(t, b.Unique)
}
