package state

// Store persists one session value per user.
//
// Get returns the zero session and false when the user has none. Put replaces
// the session wholesale; concurrent read-modify-write sequences for the same
// user are not serialized and the last Put wins.
type Store[S any] interface {
	Get(userID int64) (S, bool)
	Put(userID int64, s S)
}
