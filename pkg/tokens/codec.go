// Package tokens signs and verifies the HS256 tokens handed out by the auth
// endpoints and pairs them into access/refresh sets.
package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/museum/internal/errs"
	"github.com/Skotchmaster/museum/internal/models"
)

const (
	ClaimIssuer = "server"
	Audience    = "user"
)

type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the subject back into a user id.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("bad subject %q", c.Subject)
	}
	return uint(id), nil
}

// Codec signs and verifies tokens with a single secret. Access and refresh
// tokens must use codecs with different secrets.
type Codec struct {
	Secret []byte
	// Now overrides the clock, nil means time.Now.
	Now func() time.Time
}

func (c Codec) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Sign returns a token for the user valid for ttl and its expiry as encoded in the token.
func (c Codec) Sign(userID uint, role models.Role, ttl time.Duration) (string, time.Time, error) {
	if len(c.Secret) == 0 {
		return "", time.Time{}, errors.New("tokens: empty secret")
	}
	if userID == 0 {
		return "", time.Time{}, errors.New("tokens: empty subject")
	}

	now := c.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ClaimIssuer,
			Audience:  jwt.ClaimStrings{Audience},
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("tokens: sign: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks signature, algorithm, issuer, audience and expiry. It fails
// with errs.ErrTokenExpired for a well-signed token past its expiry and with
// errs.ErrTokenInvalid for everything else.
func (c Codec) Verify(token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return c.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ClaimIssuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", errs.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return nil, errs.ErrTokenInvalid
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", errs.ErrTokenInvalid, claims.Role)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrTokenInvalid, err)
	}
	return &claims, nil
}

// Sha256Hex is the lookup key stored for a refresh token instead of the token itself.
func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
