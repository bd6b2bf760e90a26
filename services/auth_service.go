package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/config"
)

const tokenIssuer = "ride-cancellation-api"

// Scopes carried by operator tokens. Admin implies read.
const (
	ScopeRead  = "read"
	ScopeAdmin = "admin"
)

var (
	ErrAuthDisabled      = errors.New("jwt secret is not configured")
	ErrUnknownScope      = errors.New("unknown token scope")
	ErrInsufficientScope = errors.New("token scope does not allow this route")
)

// AuthService issues and checks the operator tokens that guard the run
// history and the live feed. There are no user accounts: tokens are minted
// offline with the shared secret.
type AuthService struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
}

func NewAuthService(cfg config.JWTConfig) *AuthService {
	return &AuthService{
		secret: []byte(cfg.Secret),
		ttl:    time.Duration(cfg.ExpiryHours) * time.Hour,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(tokenIssuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// Enabled is false when no secret is configured.
func (s *AuthService) Enabled() bool {
	return len(s.secret) > 0
}

type Claims struct {
	Operator string `json:"operator"`
	Scope    string `json:"scope"`
	jwt.RegisteredClaims
}

// Allows reports whether the claims grant the requested scope.
func (c *Claims) Allows(scope string) bool {
	return c.Scope == ScopeAdmin || c.Scope == scope
}

func (s *AuthService) IssueToken(operator, scope string) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	if scope != ScopeRead && scope != ScopeAdmin {
		return "", fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
	now := time.Now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Operator: operator,
		Scope:    scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   operator,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}).SignedString(s.secret)
}

// Authorize parses tokenStr and checks that it grants scope.
func (s *AuthService) Authorize(tokenStr, scope string) (*Claims, error) {
	claims := &Claims{}
	if _, err := s.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}); err != nil {
		return nil, err
	}
	if !claims.Allows(scope) {
		return nil, ErrInsufficientScope
	}
	return claims, nil
}
