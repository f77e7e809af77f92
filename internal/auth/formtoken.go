package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// FormTokenField is the hidden input carrying the form token.
const FormTokenField = "_swpm_nonce"

// ErrFormToken is returned when a submitted form token does not match the
// current member and action.
var ErrFormToken = errors.New("auth: invalid form token")

// FormTokens issues and checks short-lived tokens that bind a form
// submission to the member who loaded the form and to one action.
type FormTokens struct {
	secret []byte
	ttl    time.Duration
}

// NewFormTokens returns FormTokens signing with secret. A non-positive ttl
// defaults to 12 hours.
func NewFormTokens(secret []byte, ttl time.Duration) *FormTokens {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &FormTokens{secret: secret, ttl: ttl}
}

// Issue signs a token for action on behalf of the authenticated member.
func (f *FormTokens) Issue(ctx context.Context, action string) (string, error) {
	memberID, ok := MemberID(ctx)
	if !ok {
		return "", errors.New("auth: form token requires a session")
	}
	if len(f.secret) == 0 {
		return "", errors.New("auth: empty signing secret")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(memberID, 10),
		Audience:  jwt.ClaimStrings{action},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(f.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign form token: %w", err)
	}
	return signed, nil
}

// Verify checks that token was issued for action to the current member.
func (f *FormTokens) Verify(ctx context.Context, action, token string) error {
	memberID, ok := MemberID(ctx)
	if !ok || token == "" {
		return ErrFormToken
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return f.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(action),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFormToken, err)
	}
	if claims.Subject != strconv.FormatInt(memberID, 10) {
		return ErrFormToken
	}
	return nil
}
