package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/papershelf/papershelf/backend/go-services/internal/config"
	"github.com/papershelf/papershelf/backend/go-services/pkg/middleware"
)

// Verifier checks bearer tokens issued by an external OIDC provider (Keycloak).
type Verifier struct {
	issuer   string
	verifier *oidc.IDTokenVerifier
}

// IssuerURL derives the realm issuer from the Keycloak base URL.
func IssuerURL(cfg config.KeycloakConfig) string {
	base := strings.TrimRight(cfg.URL, "/")
	if cfg.Realm == "" {
		return base
	}
	return base + "/realms/" + cfg.Realm
}

// NewVerifier discovers the provider and builds a verifier for the client id.
func NewVerifier(ctx context.Context, cfg config.KeycloakConfig) (*Verifier, error) {
	if cfg.URL == "" || cfg.ClientID == "" {
		return nil, errors.New("keycloak url and client id are required")
	}
	issuer := IssuerURL(cfg)
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Verifier{
		issuer:   issuer,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (v *Verifier) Issuer() string { return v.issuer }

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}
