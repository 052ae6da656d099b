package domain

import "errors"

var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrTransient          = errors.New("store unavailable")
	ErrConflict           = errors.New("profile was modified concurrently")
	ErrAuthFailure        = errors.New("session operation failed")
	ErrSessionEnded       = errors.New("session ended")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidState       = errors.New("operation not valid in current state")
	ErrReadOnlyField      = errors.New("field is read-only")
	ErrUnknownField       = errors.New("unknown field")
)

// FailureKind is the recoverability class of a failed operation.
type FailureKind string

const (
	KindNotFound     FailureKind = "not_found"
	KindTransient    FailureKind = "transient"
	KindConflict     FailureKind = "conflict"
	KindAuthFailure  FailureKind = "auth_failure"
	KindSessionEnded FailureKind = "session_ended"
)

// Classify maps err to its failure kind. Errors the taxonomy does not name
// are treated as transient. A nil error has no kind.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrProfileNotFound), errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrSessionEnded):
		return KindSessionEnded
	case errors.Is(err, ErrAuthFailure), errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrInvalidCredentials):
		return KindAuthFailure
	default:
		return KindTransient
	}
}
