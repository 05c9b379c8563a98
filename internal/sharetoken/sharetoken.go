// Package sharetoken issues and validates signed tokens that let a
// trusted contact follow a live-tracking session without an account.
package sharetoken

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultExpiry is how long a share link stays valid. Long enough for
// any single journey, short enough that a leaked link goes stale.
const DefaultExpiry = 6 * time.Hour

// Predefined token errors.
var (
	ErrInvalidToken = errors.New("invalid share token")
	ErrTokenExpired = errors.New("share token has expired")
)

// Claims are the claims carried in a share token.
type Claims struct {
	jwt.RegisteredClaims

	// SessionID is the tracking session the token grants access to.
	SessionID string `json:"sid"`

	// TravelerID is the traveler being followed.
	TravelerID string `json:"tid"`
}

// Config holds configuration for the share-token service.
type Config struct {
	// SigningKey is the secret key used to sign tokens (required).
	SigningKey string

	// Issuer is the issuer claim (e.g. "https://api.rakshamarg.app").
	Issuer string

	// Audience is the audience claim (e.g. "rakshamarg-tracking").
	Audience string

	// Expiry is the token lifetime. Defaults to 6 hours.
	Expiry time.Duration
}

// Service issues and validates share tokens. Tokens are signed with
// HS256; there is no revocation store, expiry is the only lifetime
// control.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
	expiry     time.Duration
}

// NewService creates a new share-token service.
func NewService(cfg Config) *Service {
	expiry := cfg.Expiry
	if expiry == 0 {
		expiry = DefaultExpiry
	}

	return &Service{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		expiry:     expiry,
	}
}

// Issue creates a share token for the given session.
func (s *Service) Issue(sessionID, travelerID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   travelerID,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        generateTokenID(),
		},
		SessionID:  sessionID,
		TravelerID: travelerID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing share token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// Validate checks a share token and returns its claims.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// generateTokenID generates a unique token ID.
func generateTokenID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
