// Package service implements the session-gated command dispatcher of the
// gateway: credential verification, the rights-checking gate every
// privileged operation passes through, account provisioning and room-hash
// issuance. Every externally observable outcome is a Result envelope.
package service

// Status tags the outcome of a gateway operation.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
	StatusUnknown Status = "UNKNOWN"
)

// Result is the uniform envelope returned by every gateway operation,
// including unexpected internal failures. No internal error ever crosses
// the boundary as anything else.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Unknown is the opaque envelope for faults whose detail must not leak to
// the caller. The detail is logged internally before Unknown is returned.
var Unknown = Result{Status: StatusUnknown, Message: "error.unknown"}

// Success builds a SUCCESS envelope whose payload is a plain message, e.g.
// a session id, a hash, or an occupancy count rendered as a string.
func Success(msg string) Result {
	return Result{Status: StatusSuccess, Message: msg}
}

// SuccessData builds a SUCCESS envelope carrying domain data.
func SuccessData(data any) Result {
	return Result{Status: StatusSuccess, Data: data}
}

// Error builds an ERROR envelope with a human-readable message.
func Error(msg string) Result {
	return Result{Status: StatusError, Message: msg}
}
