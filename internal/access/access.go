// Package access holds the fixed set of users allowed to talk to the bot.
package access

// Unauthorized is the reply sent to users outside the list.
const Unauthorized = "⚠️ Unauthorized access. Please contact admin."

// List is an immutable allow-list of Telegram user ids.
type List struct {
	ids   []int64
	index map[int64]struct{}
}

// NewList copies ids, dropping duplicates and keeping first-seen order.
func NewList(ids []int64) *List {
	l := &List{index: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		if _, dup := l.index[id]; dup {
			continue
		}
		l.index[id] = struct{}{}
		l.ids = append(l.ids, id)
	}
	return l
}

// Allowed reports whether userID is on the list.
func (l *List) Allowed(userID int64) bool {
	if l == nil {
		return false
	}
	_, ok := l.index[userID]
	return ok
}

// IDs returns the users in configuration order. Private chats share the
// user's id, so these double as broadcast chat ids.
func (l *List) IDs() []int64 {
	if l == nil {
		return nil
	}
	return append([]int64(nil), l.ids...)
}
