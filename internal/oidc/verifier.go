package oidc

import (
	"context"
	"errors"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
)

// Assertion is a verified federated identity claim.
type Assertion struct {
	Subject       string
	Email         string
	Name          string
	EmailVerified bool
}

// Verifier validates ID tokens issued by an external identity provider
// against the configured issuer and expected audience.
type Verifier struct {
	verifier *gooidc.IDTokenVerifier
}

func NewVerifier(ctx context.Context, issuerURL, clientID string) (*Verifier, error) {
	if clientID == "" {
		return nil, errors.New("oidc: client id not configured")
	}
	provider, err := gooidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, err
	}
	return &Verifier{verifier: provider.Verifier(&gooidc.Config{ClientID: clientID})}, nil
}

func (v *Verifier) Verify(ctx context.Context, rawIDToken string) (Assertion, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return Assertion{}, err
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return Assertion{}, err
	}

	return Assertion{
		Subject:       idToken.Subject,
		Email:         claims.Email,
		Name:          claims.Name,
		EmailVerified: claims.EmailVerified,
	}, nil
}
