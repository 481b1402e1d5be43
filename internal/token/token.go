package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates a token failed signature or claim validation.
var ErrInvalidToken = errors.New("invalid token")

// Claims carried by EduTrack access and refresh tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Pair bundles an access token with its refresh counterpart.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Issuer mints and validates JWT pairs for authenticated users.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewIssuer constructs an Issuer with the given secrets and lifetimes.
func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// IssuePair mints an access/refresh token pair for the user.
func (i *Issuer) IssuePair(userID uint, role string) (Pair, error) {
	access, err := i.sign(userID, role, i.accessSecret, i.accessTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := i.sign(userID, role, i.refreshSecret, i.refreshTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// ValidateRefresh parses a refresh token and returns the subject user id and role.
func (i *Issuer) ValidateRefresh(tokenString string) (uint, string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return i.refreshSecret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, "", ErrInvalidToken
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, "", ErrInvalidToken
	}

	return uint(userID), claims.Role, nil
}

func (i *Issuer) sign(userID uint, role string, secret []byte, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "edutrack",
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
