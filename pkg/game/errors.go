package game

// ErrInvalidAction is returned by validated transitions when the request
// fails a user-facing precondition. The match state is unchanged.
type ErrInvalidAction struct {
	Reason string
}

func (e *ErrInvalidAction) Error() string {
	return e.Reason
}

func IsInvalidAction(err error) bool {
	_, ok := err.(*ErrInvalidAction)
	return ok
}
