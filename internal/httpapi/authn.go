package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"pflegelog.org/internal/auth"
	"pflegelog.org/internal/pflege"
)

const (
	authHeader  = "Authorization"
	bearer      = "Bearer "
	tokenCookie = "access_token"
)

// tokenFromRequest reads the session token from the Authorization header or,
// failing that, the access_token cookie.
func tokenFromRequest(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get(authHeader))
	if header != "" {
		if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
			return "", auth.ErrInvalidToken
		}
		token := strings.TrimSpace(header[len(bearer):])
		if token == "" {
			return "", auth.ErrNoToken
		}
		return token, nil
	}
	if c, err := r.Cookie(tokenCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", auth.ErrNoToken
}

// requireLogin rejects requests without a valid token.
func (a *API) requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		login, err := a.authenticate(r)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, authFailureMessage(err))
			return
		}
		next(w, r.WithContext(auth.ContextWithLogin(r.Context(), login)))
	}
}

// optionalLogin lets unauthenticated requests pass through as guests but
// still rejects requests carrying a broken token.
func (a *API) optionalLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		login, err := a.authenticate(r)
		switch {
		case err == nil:
			r = r.WithContext(auth.ContextWithLogin(r.Context(), login))
		case errors.Is(err, auth.ErrNoToken):
			// guest
		default:
			writeError(w, r, http.StatusUnauthorized, authFailureMessage(err))
			return
		}
		next(w, r)
	}
}

func (a *API) authenticate(r *http.Request) (auth.Login, error) {
	token, err := tokenFromRequest(r)
	if err != nil {
		return auth.Login{}, err
	}
	return a.auth.VerifyToken(token)
}

func authFailureMessage(err error) string {
	if errors.Is(err, auth.ErrNoToken) {
		return "authentication required"
	}
	return "invalid token"
}

// viewer derives the policy identity from the request context. A request
// without a login yields the guest viewer.
func viewer(r *http.Request) pflege.Viewer {
	login, ok := auth.LoginFromContext(r.Context())
	if !ok {
		return pflege.Viewer{}
	}
	return pflege.Viewer{ID: login.ID, Admin: login.Admin()}
}
