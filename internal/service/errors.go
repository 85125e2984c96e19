package service

// CallError is a domain-level failure raised inside a gated operation. Its
// message is returned verbatim to the caller in an ERROR envelope; any
// other error type surfaces only as the opaque UNKNOWN envelope.
type CallError struct{ Msg string }

func (e *CallError) Error() string { return e.Msg }

// NewCallError builds a domain failure with the given caller-visible message.
func NewCallError(msg string) *CallError { return &CallError{Msg: msg} }

// Caller-visible messages of the well-known domain failures.
const (
	msgBadCredentials = "error.bad.credentials"
	msgInvalidSession = "invalid session"
	msgAccessDenied   = "access denied"
	msgUserExists     = "User does already exist!"
	msgLoginInUse     = "error.login.inuse"
	msgCreateFailed   = "Unexpected error while creating user"
	msgInvalidHash    = "invalid hash"
)
