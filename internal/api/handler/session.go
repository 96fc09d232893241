package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/clarus/internal/api/response"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return req, false
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "email is required", nil)
		return req, false
	}
	if req.Password == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "password is required", nil)
		return req, false
	}
	return req, true
}

func newAuthHandler(c Console, action func(ctx context.Context, email, password string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds, ok := decodeCredentials(w, r)
		if !ok {
			return
		}
		if err := action(r.Context(), creds.Email, creds.Password); err != nil {
			writeError(w, c, err)
			return
		}
		response.JSON(w, c.Snapshot())
	}
}

// NewLoginHandler returns POST /api/v1/session/login.
func NewLoginHandler(c Console) http.HandlerFunc {
	return newAuthHandler(c, c.Login)
}

// NewRegisterHandler returns POST /api/v1/session/register.
func NewRegisterHandler(c Console) http.HandlerFunc {
	return newAuthHandler(c, c.Register)
}

// NewLogoutHandler returns DELETE /api/v1/session.
func NewLogoutHandler(c Console) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := c.Logout(r.Context()); err != nil {
			writeError(w, c, err)
			return
		}
		response.JSON(w, c.Snapshot())
	}
}
