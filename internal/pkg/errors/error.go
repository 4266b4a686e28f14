package xerrors

import (
	"errors"
	"fmt"
)

// Session and authentication failures surfaced to callers.
var (
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrIdentityResolutionFailed = errors.New("identity resolution failed")
	ErrNetwork                  = errors.New("network error")
	ErrServer                   = errors.New("server error")
	ErrUnauthorized             = errors.New("unauthorized")
	ErrStorage                  = errors.New("session storage failure")
)

// Kind classifies an AuthError.
type Kind int

const (
	KindInvalidCredentials Kind = iota + 1
	KindIdentityResolutionFailed
	KindNetwork
	KindServer
)

var kindSentinels = map[Kind]error{
	KindInvalidCredentials:       ErrInvalidCredentials,
	KindIdentityResolutionFailed: ErrIdentityResolutionFailed,
	KindNetwork:                  ErrNetwork,
	KindServer:                   ErrServer,
}

func (k Kind) String() string {
	if s, ok := kindSentinels[k]; ok {
		return s.Error()
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// AuthError is the typed failure returned by login. Reason is safe to show
// to the user; Err keeps the underlying cause for logs.
type AuthError struct {
	Kind   Kind
	Reason string
	Err    error
}

// NewAuthError builds an AuthError.
func NewAuthError(kind Kind, reason string, cause error) *AuthError {
	return &AuthError{Kind: kind, Reason: reason, Err: cause}
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *AuthError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// KindOf extracts the Kind of err, or 0 when err is not an AuthError.
func KindOf(err error) Kind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

// Storage marks err as a session storage failure.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
