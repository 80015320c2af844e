package auth

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	apperrors "github.com/yanqian/fitbit-export/pkg/errors"
)

type phase int

const (
	phaseAwaiting phase = iota
	phaseCompleted
)

// Flow is one authorization attempt. It moves from awaiting a callback to
// completed exactly once; the outcome of that transition is final.
type Flow struct {
	URL string

	oauth    *oauth2.Config
	state    string
	verifier string
	logger   *slog.Logger

	mu    sync.Mutex
	phase phase
	token Token
	err   error
	done  chan struct{}
}

func newFlow(oauth *oauth2.Config, state, verifier, url string, logger *slog.Logger) *Flow {
	return &Flow{
		URL:      url,
		oauth:    oauth,
		state:    state,
		verifier: verifier,
		logger:   logger.With("component", "auth.flow"),
		done:     make(chan struct{}),
	}
}

// HandleCallback resolves the flow from the provider's redirect. The first
// call performs the transition and returns its outcome; later calls return
// ErrFlowCompleted and change nothing.
func (f *Flow) HandleCallback(ctx context.Context, params CallbackParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase == phaseCompleted {
		return ErrFlowCompleted
	}

	token, err := f.resolve(ctx, params)
	f.completeLocked(token, err)
	return err
}

// Fail completes an awaiting flow with err. It is a no-op once completed.
func (f *Flow) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase == phaseCompleted {
		return
	}
	f.completeLocked(Token{}, err)
}

// Done is closed once the flow has completed.
func (f *Flow) Done() <-chan struct{} {
	return f.done
}

// Result returns the flow's outcome. It is only meaningful after Done is closed.
func (f *Flow) Result() (Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.err
}

func (f *Flow) completeLocked(token Token, err error) {
	f.phase = phaseCompleted
	f.token = token
	f.err = err
	close(f.done)
}

func (f *Flow) resolve(ctx context.Context, params CallbackParams) (Token, error) {
	if subtle.ConstantTimeCompare([]byte(params.State), []byte(f.state)) != 1 {
		f.logger.Warn("callback state mismatch")
		return Token{}, apperrors.Wrap(apperrors.CodeCSRFMismatch, "CSRF Warning! Mismatching state", nil)
	}
	switch {
	case params.Code != "":
		return f.exchange(ctx, params.Code)
	case params.Error != "":
		return Token{}, apperrors.Wrap(apperrors.CodeAuthorizationDenied, "authorization denied: "+params.Error, nil)
	default:
		return Token{}, apperrors.Wrap(apperrors.CodeAuthorizationUnknown, "Unknown error while authenticating", nil)
	}
}

func (f *Flow) exchange(ctx context.Context, code string) (Token, error) {
	tok, err := f.oauth.Exchange(ctx, code, oauth2.VerifierOption(f.verifier))
	if err != nil {
		return Token{}, apperrors.Wrap(apperrors.CodeMissingToken,
			"Missing access token parameter. Please check that you are using the correct client_secret", err)
	}
	if strings.TrimSpace(tok.AccessToken) == "" {
		return Token{}, apperrors.Wrap(apperrors.CodeMissingToken, "token response carried no access token", nil)
	}

	out := Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if claims, ok := parseClaims(tok.AccessToken); ok {
		out.UserID = claims.UserID
		out.Scopes = claims.Scopes
	} else if uid, _ := tok.Extra("user_id").(string); uid != "" {
		out.UserID = uid
	}
	if scope, _ := tok.Extra("scope").(string); len(out.Scopes) == 0 && scope != "" {
		out.Scopes = strings.Fields(scope)
	}
	f.logger.Info("access token obtained", "user_id", out.UserID, "scopes", out.Scopes, "expiry", out.Expiry)
	if missing := out.MissingScopes(f.oauth.Scopes); len(missing) > 0 {
		f.logger.Warn("scopes not granted, their sections will fail to fetch", "missing", missing)
	}
	return out, nil
}
