package auth

import (
	"context"

	"pflegelog.org/internal/pflege"
)

// CredentialStore is the slice of persistence the token service needs. Every
// pflege.Store implementation satisfies it.
type CredentialStore interface {
	FindPflegerByName(ctx context.Context, name string) (pflege.Pfleger, error)
}
