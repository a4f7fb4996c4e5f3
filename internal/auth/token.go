package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that cannot be decoded or fail
// verification.
var ErrInvalidToken = errors.New("invalid token")

// TokenManager decodes bearer tokens into claim sets. Without a secret it
// trusts the upstream identity provider and only decodes; with a secret it
// verifies HS256 signatures and can issue tokens for local use.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    time.Duration(ttlMinutes) * time.Minute,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Verifying reports whether signatures are checked.
func (tm *TokenManager) Verifying() bool {
	return len(tm.secret) > 0
}

// GenerateToken signs the claim set. Registered times are added when absent.
func (tm *TokenManager) GenerateToken(claims map[string]string) (string, time.Time, error) {
	if !tm.Verifying() {
		return "", time.Time{}, errors.New("token signing requires a secret")
	}
	now := time.Now()
	expiresAt := now.Add(tm.ttl)

	payload := jwt.MapClaims{
		"iat": jwt.NewNumericDate(now),
		"exp": jwt.NewNumericDate(expiresAt),
	}
	for name, value := range claims {
		payload[name] = value
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken returns the string-valued claims of the token.
func (tm *TokenManager) ParseToken(tokenStr string) (map[string]string, error) {
	claims := jwt.MapClaims{}
	if tm.Verifying() {
		parsed, err := tm.parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
			return tm.secret, nil
		})
		if err != nil || !parsed.Valid {
			return nil, ErrInvalidToken
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
			return nil, ErrInvalidToken
		}
	}
	return ClaimsFromToken(claims), nil
}

// ClaimsFromToken keeps only string-valued claims.
func ClaimsFromToken(claims jwt.MapClaims) map[string]string {
	out := make(map[string]string, len(claims))
	for name, value := range claims {
		if str, ok := value.(string); ok {
			out[name] = str
		}
	}
	return out
}
