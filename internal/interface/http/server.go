package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/yanqian/fitbit-export/internal/domain/auth"
	"github.com/yanqian/fitbit-export/internal/infra/config"
	apperrors "github.com/yanqian/fitbit-export/pkg/errors"
)

// CallbackServer runs the local redirect endpoint for the duration of one
// authorization flow.
type CallbackServer struct {
	addr          string
	browserDelay  time.Duration
	shutdownDelay time.Duration
	timeout       time.Duration
	open          func(string) error
	listen        func(network, addr string) (net.Listener, error)
	logger        *slog.Logger
}

// NewCallbackServer builds a server bound to the redirect URL's host and port.
func NewCallbackServer(cfg *config.Config, logger *slog.Logger) *CallbackServer {
	return &CallbackServer{
		addr:          cfg.CallbackAddr(),
		browserDelay:  cfg.Auth.BrowserDelay,
		shutdownDelay: cfg.Auth.ShutdownDelay,
		timeout:       cfg.Auth.CallbackTimeout,
		open:          OpenBrowser,
		listen:        net.Listen,
		logger:        logger.With("component", "http.server"),
	}
}

// Authorize opens the browser on the flow's URL and serves callbacks until
// the flow completes, the timeout passes or ctx ends. It returns only after
// the server has shut down and the port is released.
func (s *CallbackServer) Authorize(ctx context.Context, flow *auth.Flow) (auth.Token, error) {
	ln, err := s.listen("tcp", s.addr)
	if err != nil {
		return auth.Token{}, apperrors.Wrap(apperrors.CodeConfigInvalid, "bind callback address "+s.addr, err)
	}

	var (
		once    sync.Once
		stopped = make(chan struct{})
		server  = &http.Server{ReadHeaderTimeout: 10 * time.Second}
	)
	stop := func(delay time.Duration) {
		once.Do(func() {
			time.AfterFunc(delay, func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					s.logger.Warn("callback server shutdown", "error", err)
				}
			})
		})
	}
	handler := NewCallbackHandler(ctx, flow, func() { stop(s.shutdownDelay) }, s.logger)
	server.Handler = newRouter(handler)

	go func() {
		defer close(stopped)
		s.logger.Info("callback server listening", "address", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("callback server failed", "error", err)
			flow.Fail(apperrors.Wrap(apperrors.CodeConfigInvalid, "callback server failed", err))
		}
	}()

	browserTimer := time.AfterFunc(s.browserDelay, func() {
		if err := s.open(flow.URL); err != nil {
			s.logger.Warn("could not open browser; visit the authorization URL manually", "auth_url", flow.URL, "error", err)
		}
	})
	defer browserTimer.Stop()

	timeout := time.NewTimer(s.timeout)
	defer timeout.Stop()

	select {
	case <-flow.Done():
	case <-stopped:
	case <-timeout.C:
		flow.Fail(apperrors.Wrap(apperrors.CodeCallbackTimeout, "no authorization callback within "+s.timeout.String(), nil))
		stop(0)
	case <-ctx.Done():
		flow.Fail(apperrors.Wrap(apperrors.CodeCallbackTimeout, "authorization cancelled", ctx.Err()))
		stop(0)
	}
	// The callback already scheduled the delayed shutdown; this only
	// covers the paths that resolved the flow without a request.
	stop(s.shutdownDelay)
	<-stopped

	return flow.Result()
}
