package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"pflegelog.org/internal/pflege"
)

// Single-character role claim values.
const (
	RoleAdmin = "a"
	RoleUser  = "u"
)

const defaultIssuer = "pflegelog"

// Login is a verified session identity extracted from a token.
type Login struct {
	ID        string
	Role      string
	ExpiresAt time.Time
}

// Admin reports whether the login carries the admin role.
func (l Login) Admin() bool { return l.Role == RoleAdmin }

// Claims is the JWT payload: registered claims plus the single-character
// role claim.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and verifies HS256 session tokens against a credential
// store.
type Service struct {
	creds  CredentialStore
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) ServiceOption {
	return func(s *Service) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			s.issuer = issuer
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a token service. A missing secret or a non-positive
// TTL is a deployment mistake and fails construction rather than every later
// request.
func NewService(creds CredentialStore, secret []byte, ttl time.Duration, opts ...ServiceOption) (*Service, error) {
	if creds == nil {
		return nil, fmt.Errorf("%w: credential store is required", ErrMisconfigured)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: signing secret is empty", ErrMisconfigured)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: token ttl must be positive", ErrMisconfigured)
	}
	svc := &Service{
		creds:  creds,
		secret: secret,
		ttl:    ttl,
		issuer: defaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// IssueToken checks the name and password and signs a fresh token. An unknown
// name and a wrong password return the identical error so the failure mode
// does not reveal which accounts exist.
func (s *Service) IssueToken(ctx context.Context, name, password string) (string, Login, error) {
	p, err := s.creds.FindPflegerByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return "", Login{}, ErrBadCredentials
	}
	if err := pflege.VerifyPassword(p.PasswordHash, password); err != nil {
		return "", Login{}, ErrBadCredentials
	}

	role := RoleUser
	if p.Admin {
		role = RoleAdmin
	}
	now := s.now().UTC()
	expires := now.Add(s.ttl)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", Login{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, Login{ID: p.ID, Role: role, ExpiresAt: expires}, nil
}

// VerifyToken checks the signature and claims of a presented token and
// returns the login it encodes.
func (s *Service) VerifyToken(token string) (Login, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Login{}, ErrNoToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now().UTC() }), jwt.WithIssuer(s.issuer))
	if err != nil {
		return Login{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Login{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.ExpiresAt == nil {
		return Login{}, ErrInvalidToken
	}
	if claims.Role != RoleAdmin && claims.Role != RoleUser {
		return Login{}, ErrInvalidToken
	}
	return Login{
		ID:        claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
