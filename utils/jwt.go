package utils

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "soa-restaurant"

type CustomClaims struct {
	UserID  uint   `json:"user_id,omitempty"`
	Email   string `json:"email,omitempty"`
	Role    string `json:"role"`
	ShiftID uint   `json:"shift_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies access tokens and keeps the set of tokens
// revoked by logout until they expire.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// GenerateToken signs claims, filling in issuer, issue and expiry times.
func (m *TokenManager) GenerateToken(claims CustomClaims) (string, error) {
	now := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.Subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    tokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", Internal(err, "failed to sign token")
	}
	return signed, nil
}

func (m *TokenManager) ParseToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, Unauthorized("token expired")
		}
		return nil, Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok {
		return nil, Unauthorized("invalid token claims")
	}
	if m.IsRevoked(tokenString) {
		return nil, Unauthorized("token revoked")
	}
	return claims, nil
}

// Revoke blacklists tokenString until its expiry.
func (m *TokenManager) Revoke(tokenString string, claims *CustomClaims) {
	expiry := m.now().Add(m.ttl)
	if claims != nil && claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenString] = expiry
}

func (m *TokenManager) IsRevoked(tokenString string) bool {
	m.mu.RLock()
	expiry, exists := m.revoked[tokenString]
	m.mu.RUnlock()
	if !exists {
		return false
	}
	if m.now().Before(expiry) {
		return true
	}

	// expired, drop it
	m.mu.Lock()
	delete(m.revoked, tokenString)
	m.mu.Unlock()
	return false
}
