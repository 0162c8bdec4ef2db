package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pflegelog.org/internal/auth"
	"pflegelog.org/internal/pflege"
)

type testEnv struct {
	api     *API
	handler http.Handler
	store   *pflege.InMemory
	admin   pflege.Pfleger
	user    pflege.Pfleger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := pflege.NewInMemory()
	seed := func(name string, admin bool) pflege.Pfleger {
		hash, err := pflege.HashPassword("Geheim123!")
		if err != nil {
			t.Fatal(err)
		}
		p := pflege.Pfleger{Name: name, Admin: admin, PasswordHash: hash}
		if err := store.CreatePfleger(context.Background(), &p); err != nil {
			t.Fatal(err)
		}
		return p
	}
	adminAcc := seed("Chef", true)
	userAcc := seed("Anna", false)

	authSvc, err := auth.NewService(store, []byte("test-secret-0123456789abcdef"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	pflegeSvc, err := pflege.NewService(store)
	if err != nil {
		t.Fatal(err)
	}
	api := New(authSvc, pflegeSvc, ReadyProbe{}, "test")
	return &testEnv{
		api:     api,
		handler: api.Handler(),
		store:   store,
		admin:   adminAcc,
		user:    userAcc,
	}
}

func (env *testEnv) token(t *testing.T, name string) string {
	t.Helper()
	token, _, err := env.api.auth.IssueToken(context.Background(), name, "Geheim123!")
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/healthz", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rr.Code)
	}
	body := decodeBody[map[string]any](t, rr)
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/login", "", map[string]string{"name": "Anna", "password": "falsch"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: got %d, want 401", rr.Code)
	}

	rr = env.do(t, http.MethodPost, "/api/login", "", map[string]string{"name": "Anna", "password": "Geheim123!"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("login: got %d, want 201 (%s)", rr.Code, rr.Body.String())
	}
	body := decodeBody[map[string]any](t, rr)
	if body["id"] != env.user.ID || body["role"] != auth.RoleUser {
		t.Fatalf("unexpected login resource: %v", body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("token missing from login response")
	}

	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "access_token" {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly || cookie.Value != token {
		t.Fatalf("session cookie not set correctly: %+v", cookie)
	}

	// The cookie alone authenticates a session check.
	req := httptest.NewRequest(http.MethodGet, "/api/login", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("session check: got %d, want 200", rec.Code)
	}

	rr = env.do(t, http.MethodDelete, "/api/login", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("logout: got %d, want 200", rr.Code)
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == "access_token" && c.MaxAge >= 0 {
			t.Fatalf("logout did not clear cookie: %+v", c)
		}
	}
}

func TestProtokollEndpoints(t *testing.T) {
	env := newTestEnv(t)
	annaToken := env.token(t, "Anna")
	chefToken := env.token(t, "Chef")

	// Creating requires a login.
	rr := env.do(t, http.MethodPost, "/api/protokoll", "", map[string]any{
		"patient": "Frau Mueller", "datum": "01.08.2026",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("guest create: got %d, want 401", rr.Code)
	}

	rr = env.do(t, http.MethodPost, "/api/protokoll", annaToken, map[string]any{
		"patient": "Frau Mueller", "datum": "01.08.2026",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: got %d (%s)", rr.Code, rr.Body.String())
	}
	created := decodeBody[pflege.Protokoll](t, rr)
	if created.ErstellerName != "Anna" {
		t.Fatalf("erstellerName = %q", created.ErstellerName)
	}

	// Duplicate (patient, datum) conflicts, even from another account.
	rr = env.do(t, http.MethodPost, "/api/protokoll", chefToken, map[string]any{
		"patient": "Frau Mueller", "datum": "01.08.2026",
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate: got %d, want 409", rr.Code)
	}

	// A private protokoll is invisible to others, admin or not.
	rr = env.do(t, http.MethodGet, "/api/protokoll/"+created.ID, chefToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("foreign read: got %d, want 403", rr.Code)
	}
	rr = env.do(t, http.MethodGet, "/api/protokoll/"+created.ID, "", nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("guest read: got %d, want 403", rr.Code)
	}
	rr = env.do(t, http.MethodGet, "/api/protokoll/alle", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("guest list: got %d", rr.Code)
	}
	if list := decodeBody[[]pflege.Protokoll](t, rr); len(list) != 0 {
		t.Fatalf("guest sees %d private protokolle", len(list))
	}

	// Mismatched body/path ids are rejected.
	rr = env.do(t, http.MethodPut, "/api/protokoll/"+created.ID, annaToken, map[string]any{
		"id": "anders", "public": true,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("id mismatch: got %d, want 400", rr.Code)
	}

	rr = env.do(t, http.MethodPut, "/api/protokoll/"+created.ID, annaToken, map[string]any{
		"public": true,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update: got %d (%s)", rr.Code, rr.Body.String())
	}
	rr = env.do(t, http.MethodGet, "/api/protokoll/"+created.ID, "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("guest read after publish: got %d, want 200", rr.Code)
	}

	// Only the owner may delete.
	rr = env.do(t, http.MethodDelete, "/api/protokoll/"+created.ID, chefToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("foreign delete: got %d, want 403", rr.Code)
	}
	rr = env.do(t, http.MethodDelete, "/api/protokoll/"+created.ID, annaToken, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d", rr.Code)
	}
	rr = env.do(t, http.MethodGet, "/api/protokoll/"+created.ID, annaToken, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("read after delete: got %d, want 404", rr.Code)
	}
}

func TestEintragEndpoints(t *testing.T) {
	env := newTestEnv(t)
	annaToken := env.token(t, "Anna")
	chefToken := env.token(t, "Chef")

	rr := env.do(t, http.MethodPost, "/api/protokoll", annaToken, map[string]any{
		"patient": "Frau Mueller", "datum": "02.08.2026", "public": true,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create protokoll: %d", rr.Code)
	}
	protokoll := decodeBody[pflege.Protokoll](t, rr)

	rr = env.do(t, http.MethodPost, "/api/eintrag", chefToken, map[string]any{
		"getraenk": "Tee", "menge": 150, "protokoll": protokoll.ID,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create eintrag: got %d (%s)", rr.Code, rr.Body.String())
	}
	eintrag := decodeBody[pflege.Eintrag](t, rr)
	if eintrag.Ersteller != env.admin.ID {
		t.Fatalf("eintrag author = %q, want caller", eintrag.Ersteller)
	}

	rr = env.do(t, http.MethodGet, fmt.Sprintf("/api/protokoll/%s/eintraege", protokoll.ID), "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list eintraege: %d", rr.Code)
	}
	if list := decodeBody[[]pflege.Eintrag](t, rr); len(list) != 1 {
		t.Fatalf("eintraege count = %d, want 1", len(list))
	}

	// Closing the protokoll blocks further entries with a 400.
	rr = env.do(t, http.MethodPut, "/api/protokoll/"+protokoll.ID, annaToken, map[string]any{"closed": true})
	if rr.Code != http.StatusOK {
		t.Fatalf("close protokoll: %d", rr.Code)
	}
	rr = env.do(t, http.MethodPost, "/api/eintrag", annaToken, map[string]any{
		"getraenk": "Wasser", "menge": 100, "protokoll": protokoll.ID,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("create in closed protokoll: got %d, want 400", rr.Code)
	}

	// The author may update their eintrag even in a closed protokoll.
	rr = env.do(t, http.MethodPut, "/api/eintrag/"+eintrag.ID, chefToken, map[string]any{"menge": 250})
	if rr.Code != http.StatusOK {
		t.Fatalf("author update: got %d (%s)", rr.Code, rr.Body.String())
	}
	if updated := decodeBody[pflege.Eintrag](t, rr); updated.Menge != 250 {
		t.Fatalf("menge = %d, want 250", updated.Menge)
	}

	// The owner may delete a foreign-authored eintrag in their protokoll.
	rr = env.do(t, http.MethodDelete, "/api/eintrag/"+eintrag.ID, annaToken, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("owner delete: got %d", rr.Code)
	}
}

func TestPflegerEndpoints(t *testing.T) {
	env := newTestEnv(t)
	annaToken := env.token(t, "Anna")
	chefToken := env.token(t, "Chef")

	rr := env.do(t, http.MethodGet, "/api/pfleger/alle", annaToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("non-admin list: got %d, want 403", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/api/pfleger/alle", chefToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin list: %d", rr.Code)
	}
	if list := decodeBody[[]pflege.Pfleger](t, rr); len(list) != 2 {
		t.Fatalf("pfleger count = %d, want 2", len(list))
	}

	rr = env.do(t, http.MethodPost, "/api/pfleger", chefToken, map[string]any{
		"name": "Ben", "password": "Geheim123!", "admin": false,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("admin create: got %d (%s)", rr.Code, rr.Body.String())
	}
	ben := decodeBody[pflege.Pfleger](t, rr)

	// Self-deletion is rejected even for admins.
	rr = env.do(t, http.MethodDelete, "/api/pfleger/"+env.admin.ID, chefToken, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("self delete: got %d, want 400", rr.Code)
	}

	rr = env.do(t, http.MethodDelete, "/api/pfleger/"+ben.ID, chefToken, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("admin delete: got %d", rr.Code)
	}
}

func TestUnknownRoutes(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api", "/api/unbekannt", "/api/protokoll/a/b/c"} {
		rr := env.do(t, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("%s: got %d, want 404", path, rr.Code)
		}
	}
}
