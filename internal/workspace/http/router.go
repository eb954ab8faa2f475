package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/teamspaceapp/teamspace/internal/workspace/service"
	"github.com/teamspaceapp/teamspace/internal/workspace/store"
	"github.com/teamspaceapp/teamspace/pkg/httpx"
	"github.com/teamspaceapp/teamspace/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store             store.Store
	UserService       *service.UserService
	WorkspaceService  *service.WorkspaceService
	InvitationService *service.InvitationService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerUsers()
	r.registerWorkspaces()
	r.registerInvitations()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// Rate limit tiers. Registration and accept are abuse magnets and get the
// strict tier; everything identity-scoped gets the moderate one.
var (
	strictLimit = httpx.RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 5}

	moderateLimit = httpx.RateLimitConfig{RequestsPerWindow: 60, Window: time.Minute, Burst: 20}
)

func (r *Router) registerUsers() {
	registerHandler := &RegisterHandler{UserService: r.UserService}
	r.Mux.Handle("POST /v1/users",
		httpx.Chain(registerHandler,
			httpx.RateLimitMiddleware(strictLimit),
		),
	)

	loginHandler := &LoginHandler{UserService: r.UserService}
	r.Mux.Handle("POST /v1/users/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitMiddleware(strictLimit),
		),
	)
}

func (r *Router) registerWorkspaces() {
	h := &WorkspaceHandler{WorkspaceService: r.WorkspaceService}

	identified := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			httpx.IdentityMiddleware(),
			httpx.RateLimitMiddleware(moderateLimit),
		)
	}

	r.Mux.Handle("POST /v1/workspaces", identified(h.Create))
	r.Mux.Handle("GET /v1/workspaces/{id}", identified(h.Get))
	r.Mux.Handle("PATCH /v1/workspaces/{id}", identified(h.Rename))
	r.Mux.Handle("DELETE /v1/workspaces/{id}", identified(h.Delete))
	r.Mux.Handle("GET /v1/workspaces/{id}/members", identified(h.ListMembers))
	r.Mux.Handle("POST /v1/workspaces/{id}/leave", identified(h.Leave))
	r.Mux.Handle("DELETE /v1/workspaces/{id}/members/{memberID}", identified(h.Kick))
}

func (r *Router) registerInvitations() {
	h := &InvitationHandler{InvitationService: r.InvitationService}

	identified := func(fn http.HandlerFunc, cfg httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(fn,
			httpx.IdentityMiddleware(),
			httpx.RateLimitMiddleware(cfg),
		)
	}

	r.Mux.Handle("POST /v1/workspaces/{id}/invitations", identified(h.Create, moderateLimit))
	r.Mux.Handle("GET /v1/workspaces/{id}/invitations", identified(h.List, moderateLimit))
	r.Mux.Handle("POST /v1/workspaces/{id}/invitations/resend", identified(h.Resend, moderateLimit))

	// Accept is where guessed codes land, so it gets the strict tier.
	r.Mux.Handle("POST /v1/invitations/{code}/accept", identified(h.Accept, strictLimit))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /healthz", HealthzHandler(r.store, r.startTime, r.buildVersion))
}
