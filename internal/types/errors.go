package types

import "errors"

var (
	ErrValidation       = errors.New("invalid input")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrRateLimited      = errors.New("rate limited")
	ErrNetwork          = errors.New("network error")
	ErrGeneration       = errors.New("text generation failed")
	ErrSessionBusy      = errors.New("platform session is busy")
	ErrDraftState       = errors.New("draft state does not allow this")
)

// IsTransient reports whether err is worth retrying at the platform boundary
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrNetwork)
}
