package auth

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"strings"

	"golang.org/x/oauth2"

	apperrors "github.com/yanqian/fitbit-export/pkg/errors"
)

// Authorizer starts authorization-code flows against the provider.
type Authorizer struct {
	oauth  *oauth2.Config
	logger *slog.Logger
}

// NewAuthorizer validates cfg and builds the OAuth2 client configuration.
func NewAuthorizer(cfg Config, logger *slog.Logger) (*Authorizer, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, apperrors.Wrap(apperrors.CodeSecretsInvalid, "oauth2 client id and secret are required", nil)
	}
	if cfg.AuthURL == "" || cfg.TokenURL == "" || cfg.RedirectURL == "" {
		return nil, apperrors.Wrap(apperrors.CodeConfigInvalid, "oauth2 endpoints are not configured", nil)
	}
	return &Authorizer{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		logger: logger.With("component", "auth.authorizer"),
	}, nil
}

// Start creates a flow with a fresh anti-forgery state and PKCE verifier.
func (a *Authorizer) Start() (*Flow, error) {
	state, err := randomString(32)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "generate oauth state", err)
	}
	verifier := oauth2.GenerateVerifier()
	url := a.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	a.logger.Info("authorization flow started", "auth_url", url)
	return newFlow(a.oauth, state, verifier, url, a.logger), nil
}

func randomString(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
