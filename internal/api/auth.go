package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-panels/internal/auth"
)

// ticketTTL is how long a websocket ticket stays valid.
const ticketTTL = 60 * time.Second

// ctxKeyClaims is the context key for the caller's token claims.
const ctxKeyClaims contextKey = "claims"

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ticketStore holds single-use websocket tickets, so the access token
// never appears in a URL.
type ticketStore struct {
	mu      sync.Mutex
	tickets map[string]time.Time
	now     func() time.Time
}

func newTicketStore() *ticketStore {
	return &ticketStore{tickets: make(map[string]time.Time), now: time.Now}
}

func (t *ticketStore) issue() string {
	ticket := uuid.NewString()
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	for k, exp := range t.tickets {
		if now.After(exp) {
			delete(t.tickets, k)
		}
	}
	t.tickets[ticket] = now.Add(ticketTTL)
	return ticket
}

// redeem consumes ticket and reports whether it was valid.
func (t *ticketStore) redeem(ticket string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	exp, ok := t.tickets[ticket]
	delete(t.tickets, ticket)
	return ok && !t.now().After(exp)
}

// handleLogin exchanges operator credentials for an access token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "authentication is disabled")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	token, ttl, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		s.logger.Warn("login failed", "username", req.Username, "error", err)
		writeUnauthorized(w, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(ttl.Seconds()),
	})
}

// handleWSTicket returns a single-use ticket for GET /ws.
func (s *Server) handleWSTicket(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ticket":     s.tickets.issue(),
		"expires_in": int(ticketTTL.Seconds()),
	})
}

// authMiddleware requires a bearer token when authentication is enabled.
// Reads need PermRead; every other method needs PermOperate.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			writeUnauthorized(w, "bearer token required")
			return
		}
		perm := auth.PermOperate
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			perm = auth.PermRead
		}

		claims, err := s.auth.Verify(token, perm)
		switch {
		case errors.Is(err, auth.ErrForbidden):
			writeError(w, http.StatusForbidden, ErrCodeForbidden, "insufficient permissions")
			return
		case err != nil:
			writeUnauthorized(w, "invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}
