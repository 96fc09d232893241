package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/clarus/internal/api/middleware"
	"github.com/kiranshivaraju/clarus/internal/api/handler"
	"github.com/kiranshivaraju/clarus/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Session mw.Authenticator

	HealthHandler   http.HandlerFunc
	StateHandler    http.HandlerFunc
	RegisterHandler http.HandlerFunc
	LoginHandler    http.HandlerFunc
	LogoutHandler   http.HandlerFunc

	BillingHandler        http.HandlerFunc
	RefreshBillingHandler http.HandlerFunc
	RenewHandler          http.HandlerFunc

	UploadHandler      http.HandlerFunc
	ListJobsHandler    http.HandlerFunc
	RefreshJobsHandler http.HandlerFunc
	OpenJobHandler     http.HandlerFunc
	CurrentJobHandler  http.HandlerFunc
	BackHandler        http.HandlerFunc
	DownloadHandler    http.HandlerFunc
}

// ConsoleDependencies wires every route to the given console.
func ConsoleDependencies(c handler.Console, session mw.Authenticator, pinger handler.Pinger, historyLimit int) Dependencies {
	return Dependencies{
		Session: session,

		HealthHandler:   handler.NewHealthHandler(pinger),
		StateHandler:    handler.NewStateHandler(c),
		RegisterHandler: handler.NewRegisterHandler(c),
		LoginHandler:    handler.NewLoginHandler(c),
		LogoutHandler:   handler.NewLogoutHandler(c),

		BillingHandler:        handler.NewBillingHandler(c),
		RefreshBillingHandler: handler.NewRefreshBillingHandler(c),
		RenewHandler:          handler.NewRenewHandler(c),

		UploadHandler:      handler.NewUploadHandler(c),
		ListJobsHandler:    handler.NewListJobsHandler(c, historyLimit),
		RefreshJobsHandler: handler.NewRefreshJobsHandler(c, historyLimit),
		OpenJobHandler:     handler.NewOpenJobHandler(c),
		CurrentJobHandler:  handler.NewCurrentJobHandler(c),
		BackHandler:        handler.NewBackHandler(c),
		DownloadHandler:    handler.NewDownloadHandler(c),
	}
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public
		r.Get("/health", orNotImplemented(deps.HealthHandler))
		r.Get("/state", orNotImplemented(deps.StateHandler))
		r.Post("/session/register", orNotImplemented(deps.RegisterHandler))
		r.Post("/session/login", orNotImplemented(deps.LoginHandler))

		// Signed-in routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireSession(deps.Session))

			r.Delete("/session", orNotImplemented(deps.LogoutHandler))

			r.Get("/billing", orNotImplemented(deps.BillingHandler))
			r.Post("/billing/refresh", orNotImplemented(deps.RefreshBillingHandler))
			r.Post("/billing/renew", orNotImplemented(deps.RenewHandler))

			r.Post("/uploads", orNotImplemented(deps.UploadHandler))

			r.Get("/jobs", orNotImplemented(deps.ListJobsHandler))
			r.Post("/jobs/refresh", orNotImplemented(deps.RefreshJobsHandler))
			r.Post("/jobs/{jobID}/open", orNotImplemented(deps.OpenJobHandler))

			r.Get("/current", orNotImplemented(deps.CurrentJobHandler))
			r.Delete("/current", orNotImplemented(deps.BackHandler))
			r.Get("/current/download", orNotImplemented(deps.DownloadHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
