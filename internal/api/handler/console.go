// Package handler maps console routes onto the front-end controller.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/kiranshivaraju/clarus/internal/api/response"
	"github.com/kiranshivaraju/clarus/internal/app"
	"github.com/kiranshivaraju/clarus/internal/backend"
	"github.com/kiranshivaraju/clarus/pkg/models"
)

// Console is the controller surface the handlers depend on.
type Console interface {
	Snapshot() app.Snapshot
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	RefreshSubscription(ctx context.Context) error
	Renew(ctx context.Context, planCode string) (*models.Renewal, error)
	Upload(ctx context.Context, filename string, file io.Reader) (*models.Job, error)
	RefreshHistory(ctx context.Context) error
	OpenJob(jobID string)
	Back()
	Download(ctx context.Context) (*backend.Download, error)
}

var _ Console = (*app.App)(nil)

// writeError maps controller and backend errors to envelope codes. The
// banner text from the snapshot is preferred when the controller set one.
func writeError(w http.ResponseWriter, c Console, err error) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, app.ErrSubscriptionRequired):
		msg := c.Snapshot().Error
		if msg == "" {
			msg = err.Error()
		}
		response.Error(w, http.StatusPaymentRequired, "SUBSCRIPTION_REQUIRED", msg, nil)
	case errors.Is(err, app.ErrDownloadUnavailable):
		response.Error(w, http.StatusConflict, "DOWNLOAD_UNAVAILABLE", err.Error(), nil)
	case errors.Is(err, backend.ErrTimeout):
		response.Error(w, http.StatusGatewayTimeout, "BACKEND_TIMEOUT",
			"The backend did not answer in time", nil)
	case errors.Is(err, backend.ErrUnreachable):
		response.Error(w, http.StatusBadGateway, "BACKEND_UNAVAILABLE",
			"The backend is not reachable", nil)
	case errors.As(err, &apiErr):
		status := apiErr.StatusCode
		code := "BACKEND_REJECTED"
		if status >= http.StatusInternalServerError || status < http.StatusBadRequest {
			status = http.StatusBadGateway
			code = "BACKEND_ERROR"
		}
		response.Error(w, status, code, apiErr.Error(), map[string]int{"backend_status": apiErr.StatusCode})
	default:
		slog.Error("console action failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
