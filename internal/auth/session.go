// Package auth resolves the authenticated member for a request from a signed
// session token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CapManageOptions is the capability required to change site settings.
const CapManageOptions = "manage_options"

// Session is the authenticated member attached to a request.
type Session struct {
	MemberID     int64
	Capabilities []string
}

type sessionClaims struct {
	Caps []string `json:"caps,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs a session token for memberID valid for ttl.
func IssueToken(secret []byte, memberID int64, caps []string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("auth: empty signing secret")
	}
	if memberID <= 0 {
		return "", errors.New("auth: member id must be positive")
	}

	now := time.Now()
	claims := sessionClaims{
		Caps: caps,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(memberID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a session token and returns the session it carries.
func ParseToken(secret []byte, tokenString string) (Session, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Session{}, fmt.Errorf("auth: parse token: %w", err)
	}

	memberID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || memberID <= 0 {
		return Session{}, errors.New("auth: invalid subject claim")
	}

	return Session{MemberID: memberID, Capabilities: claims.Caps}, nil
}

type sessionKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session stored by WithSession.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok && s.MemberID > 0
}

// IsLoggedIn reports whether the request belongs to an authenticated member.
func IsLoggedIn(ctx context.Context) bool {
	_, ok := SessionFromContext(ctx)
	return ok
}

// MemberID returns the authenticated member's identifier.
func MemberID(ctx context.Context) (int64, bool) {
	s, ok := SessionFromContext(ctx)
	if !ok {
		return 0, false
	}
	return s.MemberID, true
}

// HasCapability reports whether the authenticated member holds capability.
func HasCapability(ctx context.Context, capability string) bool {
	s, ok := SessionFromContext(ctx)
	return ok && slices.Contains(s.Capabilities, capability)
}
