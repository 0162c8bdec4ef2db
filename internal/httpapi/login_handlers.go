package httpapi

import (
	"net/http"
	"time"
)

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// loginResponse mirrors the token claims a client needs: the account id, the
// single-character role and the expiry as unix seconds.
type loginResponse struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Exp  int64  `json:"exp"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.login(w, r)
	case http.MethodGet:
		a.currentLogin(w, r)
	case http.MethodDelete:
		a.logout(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet, http.MethodDelete)
	}
}

// login verifies credentials, issues a token and sets the session cookie. The
// token also travels in the body so non-browser clients can use the
// Authorization header instead.
func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "name and password are required")
		return
	}

	token, login, err := a.auth.IssueToken(r.Context(), req.Name, req.Password)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}
	a.setSessionCookie(w, token, login.ExpiresAt)
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    login.ID,
		"role":  login.Role,
		"exp":   login.ExpiresAt.Unix(),
		"token": token,
	})
}

// currentLogin re-validates the presented token and refreshes the cookie.
func (a *API) currentLogin(w http.ResponseWriter, r *http.Request) {
	token, err := tokenFromRequest(r)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, authFailureMessage(err))
		return
	}
	login, err := a.auth.VerifyToken(token)
	if err != nil {
		a.clearSessionCookie(w)
		writeError(w, r, http.StatusUnauthorized, "invalid token")
		return
	}
	a.setSessionCookie(w, token, login.ExpiresAt)
	writeJSON(w, http.StatusOK, loginResponse{
		ID:   login.ID,
		Role: login.Role,
		Exp:  login.ExpiresAt.Unix(),
	})
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	a.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"status": "logged_out"})
}

func (a *API) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (a *API) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}
