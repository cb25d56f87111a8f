package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/museum/internal/errs"
	"github.com/Skotchmaster/museum/internal/models"
)

func TestCodec_SignVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	c := Codec{Secret: []byte("test-access-secret")}
	for _, role := range models.AllRoles() {
		token, exp, err := c.Sign(42, role, time.Hour)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := c.Verify(token)
		require.NoError(t, err)

		id, err := claims.UserID()
		require.NoError(t, err)
		assert.Equal(t, uint(42), id)
		assert.Equal(t, role, claims.Role)
		assert.Equal(t, ClaimIssuer, claims.Issuer)
		assert.Equal(t, jwt.ClaimStrings{Audience}, claims.Audience)
		assert.NotEmpty(t, claims.ID)
		assert.WithinDuration(t, exp, claims.ExpiresAt.Time, 0)
		assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 2*time.Second)
	}
}

func TestCodec_Sign_UniqueTokens(t *testing.T) {
	t.Parallel()

	c := Codec{Secret: []byte("test-access-secret")}
	a, _, err := c.Sign(1, models.RoleGuest, time.Hour)
	require.NoError(t, err)
	b, _, err := c.Sign(1, models.RoleGuest, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCodec_Verify_Expired(t *testing.T) {
	t.Parallel()

	c := Codec{Secret: []byte("test-access-secret")}
	ttls := []time.Duration{-time.Millisecond * 1500, -time.Minute, -48 * time.Hour}
	for _, ttl := range ttls {
		token, _, err := c.Sign(7, models.RoleAdmin, ttl)
		require.NoError(t, err)

		_, err = c.Verify(token)
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrTokenExpired)
		assert.NotErrorIs(t, err, errs.ErrTokenInvalid)
	}
}

func TestCodec_Verify_ExpiredByClock(t *testing.T) {
	t.Parallel()

	now := time.Now()
	c := Codec{Secret: []byte("test-access-secret"), Now: func() time.Time { return now }}
	token, _, err := c.Sign(7, models.RoleCurator, time.Hour)
	require.NoError(t, err)

	later := Codec{Secret: c.Secret, Now: func() time.Time { return now.Add(time.Hour + time.Second) }}
	_, err = later.Verify(token)
	assert.ErrorIs(t, err, errs.ErrTokenExpired)
}

func TestCodec_Verify_Invalid(t *testing.T) {
	t.Parallel()

	secret := []byte("test-access-secret")
	c := Codec{Secret: secret}
	good, _, err := c.Sign(3, models.RoleGuest, time.Hour)
	require.NoError(t, err)

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	base := func() Claims {
		now := time.Now()
		return Claims{
			Role: models.RoleGuest,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    ClaimIssuer,
				Audience:  jwt.ClaimStrings{Audience},
				Subject:   "3",
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
	}

	wrongIssuer := base()
	wrongIssuer.Issuer = "someone-else"
	wrongAudience := base()
	wrongAudience.Audience = jwt.ClaimStrings{"admin"}
	noExpiry := base()
	noExpiry.ExpiresAt = nil
	badRole := base()
	badRole.Role = "ROOT"
	badSubject := base()
	badSubject.Subject = "alice"

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{name: "empty", token: ""},
		{name: "tampered", token: good[:len(good)-2] + "xx"},
		{name: "other secret", token: sign(base(), jwt.SigningMethodHS256, []byte("other"))},
		{name: "alg none", token: sign(base(), jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)},
		{name: "hs512", token: sign(base(), jwt.SigningMethodHS512, secret)},
		{name: "wrong issuer", token: sign(wrongIssuer, jwt.SigningMethodHS256, secret)},
		{name: "wrong audience", token: sign(wrongAudience, jwt.SigningMethodHS256, secret)},
		{name: "no expiry", token: sign(noExpiry, jwt.SigningMethodHS256, secret)},
		{name: "unknown role", token: sign(badRole, jwt.SigningMethodHS256, secret)},
		{name: "bad subject", token: sign(badSubject, jwt.SigningMethodHS256, secret)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims, err := c.Verify(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, errs.ErrTokenInvalid)
			assert.NotErrorIs(t, err, errs.ErrTokenExpired)
		})
	}
}

func TestCodec_Sign_RejectsEmptyInput(t *testing.T) {
	t.Parallel()

	_, _, err := Codec{}.Sign(1, models.RoleGuest, time.Hour)
	assert.Error(t, err)

	_, _, err = Codec{Secret: []byte("s")}.Sign(0, models.RoleGuest, time.Hour)
	assert.Error(t, err)
}

func TestSha256Hex(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", Sha256Hex("hello"))
	assert.Len(t, Sha256Hex("anything"), 64)
}
