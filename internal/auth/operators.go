package auth

import (
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-panels/internal/infrastructure/config"
)

type operator struct {
	passwordHash string
	role         Role
}

// Authenticator checks operator credentials and tokens.
type Authenticator struct {
	operators map[string]operator
	issuer    *Issuer
}

// NewAuthenticator builds an authenticator from the API auth settings.
// It returns nil when cfg has no JWT secret, meaning authentication is off.
func NewAuthenticator(cfg config.APIAuthConfig) (*Authenticator, error) {
	if cfg.JWTSecret == "" {
		return nil, nil //nolint:nilnil // nil authenticator disables auth
	}
	a := &Authenticator{
		operators: make(map[string]operator, len(cfg.Operators)),
		issuer:    NewIssuer(cfg.JWTSecret, time.Duration(cfg.TokenTTL)*time.Minute),
	}
	for _, op := range cfg.Operators {
		role, err := ParseRole(op.Role)
		if err != nil {
			return nil, fmt.Errorf("operator %q: %w", op.Username, err)
		}
		if _, err := parseArgonHash(op.PasswordHash); err != nil {
			return nil, fmt.Errorf("operator %q: %w", op.Username, err)
		}
		a.operators[op.Username] = operator{passwordHash: op.PasswordHash, role: role}
	}
	return a, nil
}

// Login verifies username and password and returns a signed token.
func (a *Authenticator) Login(username, password string) (token string, ttl time.Duration, err error) {
	op, ok := a.operators[username]
	if !ok {
		return "", 0, ErrInvalidCredentials
	}
	match, err := VerifyPassword(password, op.passwordHash)
	if err != nil {
		return "", 0, err
	}
	if !match {
		return "", 0, ErrInvalidCredentials
	}
	token, err = a.issuer.Issue(username, op.role)
	if err != nil {
		return "", 0, err
	}
	return token, a.issuer.TTL(), nil
}

// Verify parses token and checks that the operator's configured role
// grants p. The role in the token is only used if it still matches.
func (a *Authenticator) Verify(token string, p Permission) (*Claims, error) {
	claims, err := a.issuer.Parse(token)
	if err != nil {
		return nil, err
	}
	op, ok := a.operators[claims.Subject]
	if !ok || op.role != claims.Role {
		return nil, fmt.Errorf("%w: operator %q is not configured with role %s", ErrTokenInvalid, claims.Subject, claims.Role)
	}
	if !op.role.HasPermission(p) {
		return nil, fmt.Errorf("%w: role %s lacks %s", ErrForbidden, op.role, p)
	}
	return claims, nil
}
