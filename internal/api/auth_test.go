package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nerrad567/gray-logic-panels/internal/auth"
	"github.com/nerrad567/gray-logic-panels/internal/infrastructure/config"
)

// authServer returns a server with operator "amy" and viewer "vic",
// both with password "pw".
func authServer(t *testing.T) *testEnv {
	t.Helper()
	hash, err := auth.HashPassword("pw")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	authenticator, err := auth.NewAuthenticator(config.APIAuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  5,
		Operators: []config.OperatorConfig{
			{Username: "amy", PasswordHash: hash, Role: "operator"},
			{Username: "vic", PasswordHash: hash, Role: "viewer"},
		},
	})
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	return testServerWith(t, func(d *Deps) { d.Auth = authenticator })
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/auth/login", `{"username":"`+username+`","password":"pw"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login %s status = %d, body %s", username, w.Code, w.Body.String())
	}
	var resp loginResponse
	decode(t, w, &resp)
	if resp.TokenType != "Bearer" || resp.ExpiresIn != 300 {
		t.Errorf("login response = %+v", resp)
	}
	return resp.AccessToken
}

func (e *testEnv) doAuth(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestLogin_DisabledWithoutAuth(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", `{"username":"amy","password":"pw"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("login status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/panels", ""); w.Code != http.StatusOK {
		t.Errorf("open panels status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	env := authServer(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", `{"username":"amy","password":"nope"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if w := env.do(t, http.MethodPost, "/api/v1/auth/login", `{`); w.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAuthMiddleware(t *testing.T) {
	env := authServer(t)
	operator := env.login(t, "amy")
	viewer := env.login(t, "vic")

	if w := env.do(t, http.MethodGet, "/api/v1/health", ""); w.Code != http.StatusOK {
		t.Errorf("health without token = %d, want %d", w.Code, http.StatusOK)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/panels", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("panels without token = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if w := env.doAuth(t, http.MethodGet, "/api/v1/panels", "garbage"); w.Code != http.StatusUnauthorized {
		t.Errorf("panels with bad token = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if w := env.doAuth(t, http.MethodGet, "/api/v1/panels", viewer); w.Code != http.StatusOK {
		t.Errorf("viewer GET panels = %d, want %d", w.Code, http.StatusOK)
	}
	if w := env.doAuth(t, http.MethodPost, "/api/v1/panels/hall/resync", viewer); w.Code != http.StatusForbidden {
		t.Errorf("viewer resync = %d, want %d", w.Code, http.StatusForbidden)
	}
	if w := env.doAuth(t, http.MethodPost, "/api/v1/panels/hall/resync", operator); w.Code != http.StatusNoContent {
		t.Errorf("operator resync = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestWSTicket(t *testing.T) {
	env := authServer(t)
	operator := env.login(t, "amy")

	w := env.doAuth(t, http.MethodPost, "/api/v1/auth/ws-ticket", operator)
	if w.Code != http.StatusOK {
		t.Fatalf("ws-ticket status = %d", w.Code)
	}
	var resp struct {
		Ticket    string `json:"ticket"`
		ExpiresIn int    `json:"expires_in"`
	}
	decode(t, w, &resp)
	if resp.Ticket == "" || resp.ExpiresIn != 60 {
		t.Errorf("ticket response = %+v", resp)
	}

	if !env.srv.tickets.redeem(resp.Ticket) {
		t.Error("fresh ticket should redeem")
	}
	if env.srv.tickets.redeem(resp.Ticket) {
		t.Error("ticket should be single-use")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", strings.NewReader(""))
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		got, ok := bearerToken(req)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
