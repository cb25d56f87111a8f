package tokens

import (
	"fmt"
	"time"

	"github.com/Skotchmaster/museum/internal/models"
)

const (
	DefaultAccessTTL  = 2 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
	// DefaultMargin is subtracted from the reported lifetime so clients give
	// up on a token slightly before the server does.
	DefaultMargin = 3 * time.Second
)

type Token struct {
	Value     string
	ExpiresAt time.Time
	// ExpiresIn is the lifetime reported to the client, already reduced by the margin.
	ExpiresIn time.Duration
}

// ExpiresInMillis is the value sent as expiresIn in JSON bodies.
func (t Token) ExpiresInMillis() int64 { return t.ExpiresIn.Milliseconds() }

type Pair struct {
	Access  Token
	Refresh Token
}

type Issuer struct {
	Access     Codec
	Refresh    Codec
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Margin     time.Duration
}

func NewIssuer(accessSecret, refreshSecret []byte) *Issuer {
	return &Issuer{
		Access:     Codec{Secret: accessSecret},
		Refresh:    Codec{Secret: refreshSecret},
		AccessTTL:  DefaultAccessTTL,
		RefreshTTL: DefaultRefreshTTL,
		Margin:     DefaultMargin,
	}
}

func (i *Issuer) IssueAccessToken(userID uint, role models.Role) (Token, error) {
	return i.issue(i.Access, userID, role, i.AccessTTL)
}

func (i *Issuer) IssueRefreshToken(userID uint, role models.Role) (Token, error) {
	return i.issue(i.Refresh, userID, role, i.RefreshTTL)
}

func (i *Issuer) IssuePair(userID uint, role models.Role) (Pair, error) {
	access, err := i.IssueAccessToken(userID, role)
	if err != nil {
		return Pair{}, fmt.Errorf("access token: %w", err)
	}
	refresh, err := i.IssueRefreshToken(userID, role)
	if err != nil {
		return Pair{}, fmt.Errorf("refresh token: %w", err)
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

func (i *Issuer) VerifyAccess(token string) (*Claims, error) { return i.Access.Verify(token) }

func (i *Issuer) VerifyRefresh(token string) (*Claims, error) { return i.Refresh.Verify(token) }

func (i *Issuer) issue(c Codec, userID uint, role models.Role, ttl time.Duration) (Token, error) {
	value, exp, err := c.Sign(userID, role, ttl)
	if err != nil {
		return Token{}, err
	}
	expiresIn := ttl - i.Margin
	if expiresIn < 0 {
		expiresIn = 0
	}
	return Token{Value: value, ExpiresAt: exp, ExpiresIn: expiresIn}, nil
}
