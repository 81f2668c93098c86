package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/gatekeep/pkg/audit"
	"github.com/platinummonkey/gatekeep/pkg/httputil"
	"github.com/platinummonkey/gatekeep/pkg/middleware"
	"github.com/platinummonkey/gatekeep/pkg/observability"
	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

// RoleAssigner persists a role change that the guards already approved.
// The guards judged the change against current, so an assigner must refuse
// to apply it when the user's stored role is anything else.
type RoleAssigner interface {
	AssignRole(ctx context.Context, tenantID, userID string, current, role rbac.Role) error
}

// RoleAssignerFunc adapts a function to RoleAssigner
type RoleAssignerFunc func(ctx context.Context, tenantID, userID string, current, role rbac.Role) error

// AssignRole implements RoleAssigner
func (f RoleAssignerFunc) AssignRole(ctx context.Context, tenantID, userID string, current, role rbac.Role) error {
	return f(ctx, tenantID, userID, current, role)
}

// Options holds the collaborators of a Server. Only Sessions is required.
type Options struct {
	Sessions       middleware.PrincipalLookup
	CourseOwners   middleware.TenantOwnerLookup
	Roles          RoleAssigner
	Audit          audit.Logger
	Logger         *observability.Logger
	Metrics        *observability.Metrics
	Health         *observability.HealthChecker
	RateLimiter    *middleware.RateLimitMiddleware
	AllowedOrigins []string
}

// Server is the authorization HTTP API
type Server struct {
	router  *mux.Router
	authz   *middleware.Authorizer
	opts    Options
	logger  *observability.Logger
	auditor audit.Logger
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	auditor := opts.Audit
	if auditor == nil {
		auditor = audit.FromContext(context.Background())
	}

	s := &Server{
		router:  mux.NewRouter(),
		opts:    opts,
		logger:  logger,
		auditor: auditor,
		authz: middleware.NewAuthorizer(
			middleware.WithMetrics(opts.Metrics),
			middleware.WithAuditLogger(auditor),
		),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.router.Use(httputil.RequestIDMiddleware)
	s.router.Use(s.contextMiddleware)
	s.router.Use(observability.RecoveryMiddleware(s.logger))
	if s.opts.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.opts.Metrics))
	}
	if len(s.opts.AllowedOrigins) > 0 {
		s.router.Use(httputil.CORSMiddleware(s.opts.AllowedOrigins))
	}

	// Probes
	if s.opts.Health != nil {
		s.router.HandleFunc("/healthz", s.opts.Health.Liveness).Methods("GET")
		s.router.HandleFunc("/readyz", s.opts.Health.Readiness).Methods("GET")
	} else {
		s.router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			_ = httputil.WriteSuccess(w, map[string]string{"status": "healthy"})
		}).Methods("GET")
	}

	// CORS preflight never reaches the guarded routes
	s.router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Per-IP limits run before authentication so rejected tokens are
	// throttled too; per-principal limits need the principal
	v1 := s.router.PathPrefix("/v1").Subrouter()
	if s.opts.RateLimiter != nil {
		v1.Use(s.opts.RateLimiter.IPHandler)
	}
	v1.Use(middleware.NewAuthMiddleware(s.opts.Sessions, false, s.opts.Metrics).Handler)
	if s.opts.RateLimiter != nil {
		v1.Use(s.opts.RateLimiter.Handler)
	}

	active := []middleware.Guard{
		middleware.RequireAuthenticated(),
		middleware.RequireActiveAccount(),
	}
	tenantScoped := with(active, middleware.RequireTenantMatch())

	v1.Handle("/me/permissions", s.guard(s.getMyPermissions, active...)).Methods("GET")
	v1.Handle("/authz/check", s.guard(s.checkPermission, active...)).Methods("POST")
	v1.Handle("/roles", s.guard(s.listRoles,
		middleware.RequireAuthenticated(),
		middleware.RequirePermission(rbac.PermRolesRead),
	)).Methods("GET")

	v1.Handle("/tenants/{tenantId}/users/{userId}/role", s.guard(s.changeRole, with(tenantScoped,
		middleware.RequirePermission(rbac.PermRolesAssign),
		middleware.RequireRoleChangePermission(),
	)...)).Methods("PUT")

	v1.Handle("/tenants/{tenantId}/courses/{courseId}", s.guard(s.updateCourse, with(tenantScoped,
		middleware.RequireAnyPermission(rbac.PermCoursesUpdate, rbac.PermCoursesPublish),
		middleware.RequireTenantOwnershipOrAdmin("courseId", s.opts.CourseOwners),
	)...)).Methods("PATCH")

	v1.Handle("/tenants/{tenantId}/analytics", s.guard(s.getAnalytics, with(tenantScoped,
		middleware.RequireResourceAccess(rbac.ResourceAnalytics, rbac.ActionRead),
	)...)).Methods("GET")
}

// with returns a new chain of base followed by more
func with(base []middleware.Guard, more ...middleware.Guard) []middleware.Guard {
	out := make([]middleware.Guard, 0, len(base)+len(more))
	out = append(out, base...)
	return append(out, more...)
}

func (s *Server) guard(h http.HandlerFunc, guards ...middleware.Guard) http.Handler {
	return s.authz.Chain(guards...)(h)
}

// contextMiddleware attaches the request logger and audit sink
func (s *Server) contextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = observability.WithLogger(ctx, s.logger)
		ctx = audit.WithLogger(ctx, s.auditor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the server wrapped with OpenTelemetry HTTP instrumentation
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "gatekeep")
}
