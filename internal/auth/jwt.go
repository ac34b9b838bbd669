package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrNoSecret = errors.New("auth: signing secret is empty")

type Claims struct {
	FacultyID string `json:"facultyId"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies bearer tokens with an explicitly injected
// process-wide secret. Verification is binary: signature, structure, and
// expiry failures are indistinguishable to the caller.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewIssuer(secret, issuer string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Issuer{secret: []byte(secret), issuer: issuer, ttl: ttl}, nil
}

func (i *Issuer) Issue(facultyID string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		FacultyID: facultyID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   facultyID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.FacultyID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
