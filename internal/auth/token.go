// Package auth issues and verifies the bearer tokens that identify a logged-in user.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is what a verified token carries.
type Claims struct {
	UserID    int64
	Username  string
	ID        string // jti, used as the revocation key
	ExpiresAt time.Time
}

// Issuer signs and parses HS256 tokens.
type Issuer struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{Secret: []byte(secret), TTL: ttl, Now: time.Now}
}

// Issue returns a signed token for the user.
func (i *Issuer) Issue(userID int64, username string) (string, Claims, error) {
	now := i.Now()
	c := Claims{
		UserID:    userID,
		Username:  username,
		ID:        uuid.NewString(),
		ExpiresAt: now.Add(i.TTL),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"jti":      c.ID,
		"iat":      now.Unix(),
		"exp":      c.ExpiresAt.Unix(),
	})
	signed, err := token.SignedString(i.Secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, c, nil
}

// Parse verifies the signature and expiry and extracts the claims.
func (i *Issuer) Parse(tokenStr string) (Claims, error) {
	token, err := jwt.Parse(tokenStr,
		func(token *jwt.Token) (interface{}, error) {
			return i.Secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.Now),
	)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	uid, ok := mc["user_id"].(float64)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	username, _ := mc["username"].(string)
	jti, _ := mc["jti"].(string)

	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		UserID:    int64(uid),
		Username:  username,
		ID:        jti,
		ExpiresAt: exp.Time,
	}, nil
}
