package bot

// State is the position of a user in the add-word dialog. The concrete types
// are Idle, AwaitingWord and AwaitingDefinition; the pending word only exists
// inside AwaitingDefinition.
type State interface {
	name() string
}

// Idle is the resting state.
type Idle struct{}

// AwaitingWord waits for the word to add.
type AwaitingWord struct{}

// AwaitingDefinition waits for the definition of Word (already lowercase).
type AwaitingDefinition struct {
	Word string
}

func (Idle) name() string               { return "idle" }
func (AwaitingWord) name() string       { return "awaiting_word" }
func (AwaitingDefinition) name() string { return "awaiting_definition" }

// Session is the per-user dialog record.
type Session struct {
	// UserName is the display name captured on first contact.
	UserName string
	State    State
}

// StateName returns the state label used in logs.
func StateName(s State) string {
	if s == nil {
		return Idle{}.name()
	}
	return s.name()
}
