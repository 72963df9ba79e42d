// Package auth issues and verifies the signed tokens that carry identity
// between requests. Two token kinds exist: short-lived verification tokens
// minted at registration, restricted to completing account verification,
// and full access tokens minted at login or after verification.
//
// There is no server-side revocation list. A token stays cryptographically
// valid until expiry, so the session layer must re-check the user's current
// existence and deleted state on every request instead of trusting claims.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token lifetimes. Verification tokens only live long enough to type in
// the emailed code.
const (
	AccessTokenTTL       = 2 * time.Hour
	VerificationTokenTTL = 10 * time.Minute
)

var (
	// ErrNoToken means the Authorization header was absent or malformed.
	ErrNoToken = errors.New("missing bearer token")
	// ErrInvalidToken covers bad signatures, expiry, and scope misuse.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the payload of every token this service signs.
type Claims struct {
	jwt.RegisteredClaims
	UID  uint   `json:"uid"`
	Role string `json:"role"`
	// VerificationPending marks a verification-scoped token. Tokens with
	// this flag are rejected by the access-token middleware.
	VerificationPending bool `json:"verification_pending,omitempty"`
}

// Secret returns JWT_SECRET or a default dev value.
func Secret() []byte {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("devjwtsecret")
}

// SignAccess mints a full access token for the user.
func SignAccess(uid uint, role string) (string, error) {
	return sign(uid, role, AccessTokenTTL, false)
}

// SignVerification mints a token usable only to complete verification.
func SignVerification(uid uint, role string) (string, error) {
	return sign(uid, role, VerificationTokenTTL, true)
}

func sign(uid uint, role string, ttl time.Duration, pending bool) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", uid),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:                 uid,
		Role:                role,
		VerificationPending: pending,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(Secret())
}

// Verify parses and validates a token string, returning its claims.
// Expiry and signature failures both come back as ErrInvalidToken.
func Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return Secret(), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// FromHeader extracts the bearer token from an Authorization header.
func FromHeader(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", ErrNoToken
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrNoToken
	}
	return parts[1], nil
}

type ctxKey string

const claimsCtxKey = ctxKey("authClaims")

// WithClaims stores verified claims in the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// ClaimsFromContext extracts verified claims.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsCtxKey).(*Claims)
	return c, ok
}
