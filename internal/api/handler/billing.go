package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/kiranshivaraju/clarus/internal/api/response"
	"github.com/kiranshivaraju/clarus/pkg/models"
)

type billingResponse struct {
	Subscription      *models.SubscriptionStatus `json:"subscription"`
	SubscriptionError string                     `json:"subscription_error,omitempty"`
	Renewal           *models.Renewal            `json:"renewal,omitempty"`
}

func billingView(c Console) billingResponse {
	s := c.Snapshot()
	return billingResponse{Subscription: s.Subscription, SubscriptionError: s.SubscriptionError}
}

// NewBillingHandler returns GET /api/v1/billing.
func NewBillingHandler(c Console) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, billingView(c))
	}
}

// NewRefreshBillingHandler returns POST /api/v1/billing/refresh.
func NewRefreshBillingHandler(c Console) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := c.RefreshSubscription(r.Context()); err != nil {
			writeError(w, c, err)
			return
		}
		response.JSON(w, billingView(c))
	}
}

// NewRenewHandler returns POST /api/v1/billing/renew. The body is optional;
// without plan_code the configured plan is renewed.
func NewRenewHandler(c Console) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlanCode string `json:"plan_code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		renewal, err := c.Renew(r.Context(), req.PlanCode)
		if err != nil {
			writeError(w, c, err)
			return
		}
		out := billingView(c)
		out.Renewal = renewal
		response.JSON(w, out)
	}
}
