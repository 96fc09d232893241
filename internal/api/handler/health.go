package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/kiranshivaraju/clarus/internal/api/response"
)

// Pinger is implemented by the shared token store backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthHandler returns GET /api/v1/health. A nil pinger reports the
// token store as local.
func NewHealthHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p == nil {
			response.JSON(w, map[string]string{"status": "ok", "token_store": "local"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "TOKEN_STORE_UNAVAILABLE",
				"Token store is not reachable", nil)
			return
		}
		response.JSON(w, map[string]string{"status": "ok", "token_store": "ok"})
	}
}

// NewStateHandler returns GET /api/v1/state.
func NewStateHandler(c Console) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, c.Snapshot())
	}
}
