package auth

import "errors"

var (
	// ErrNoToken means the request carried no token at all.
	ErrNoToken = errors.New("auth: no token")
	// ErrInvalidToken means a token was present but failed verification.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrBadCredentials covers both an unknown name and a wrong password so a
	// caller cannot probe which accounts exist.
	ErrBadCredentials = errors.New("auth: invalid credentials")
	// ErrMisconfigured means the signing secret or TTL is unusable. Returned
	// at construction time, never during request handling.
	ErrMisconfigured = errors.New("auth: misconfigured")
)
