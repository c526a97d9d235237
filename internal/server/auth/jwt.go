// Package auth holds the credential primitives: bcrypt password hashing, JWT
// issuing and verification, and the request-context identity helpers.
package auth

import (
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the public profile of the user.
type Claims struct {
	jwt.RegisteredClaims
	models.PublicProfile
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secretKey []byte
	validity  time.Duration
	now       func() time.Time
}

func NewTokenIssuer(secretKey []byte, validity time.Duration) *TokenIssuer {
	return &TokenIssuer{secretKey: secretKey, validity: validity, now: time.Now}
}

// Issue returns a signed token embedding profile that expires after the
// configured validity.
func (i *TokenIssuer) Issue(profile models.PublicProfile) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.validity)),
		},
		PublicProfile: profile,
	})

	return token.SignedString(i.secretKey)
}

// Verify checks signature and expiry and returns the embedded profile. Every
// failure is reported as common.ErrInvalidToken.
func (i *TokenIssuer) Verify(tokenString string) (*models.PublicProfile, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}

	if claims.PublicProfile.ID == "" {
		return nil, common.ErrInvalidToken
	}

	return &claims.PublicProfile, nil
}
