package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/fitbit-export/internal/domain/auth"
	apperrors "github.com/yanqian/fitbit-export/pkg/errors"
)

// CallbackHandler answers the provider's redirect for one flow.
type CallbackHandler struct {
	flow     *auth.Flow
	ctx      context.Context
	shutdown func()
	logger   *slog.Logger
}

// NewCallbackHandler binds the handler to flow. shutdown is invoked after
// every response and must be idempotent.
func NewCallbackHandler(ctx context.Context, flow *auth.Flow, shutdown func(), logger *slog.Logger) *CallbackHandler {
	return &CallbackHandler{
		flow:     flow,
		ctx:      ctx,
		shutdown: shutdown,
		logger:   logger.With("component", "http.callback"),
	}
}

// Callback handles GET / with state plus code or error. A request without
// state is not a provider redirect and leaves the flow waiting.
func (h *CallbackHandler) Callback(c *gin.Context) {
	if _, ok := c.GetQuery("state"); !ok {
		h.logger.Warn("callback without state ignored", "path", c.Request.URL.RequestURI())
		c.String(http.StatusBadRequest, "missing state parameter")
		return
	}
	params := auth.CallbackParams{
		State: c.Query("state"),
		Code:  c.Query("code"),
		Error: c.Query("error"),
	}
	err := h.flow.HandleCallback(h.ctx, params)
	defer h.shutdown()

	if err == nil {
		c.HTML(http.StatusOK, "success", nil)
		return
	}
	if errors.Is(err, auth.ErrFlowCompleted) {
		h.logger.Warn("ignoring repeated callback")
	} else {
		h.logger.Error("authorization failed", "code", apperrors.CodeOf(err), "error", err)
	}
	c.HTML(http.StatusOK, "failure", gin.H{"Message": failureMessage(err)})
}

func failureMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
