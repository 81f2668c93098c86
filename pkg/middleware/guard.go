package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/gatekeep/pkg/audit"
	"github.com/platinummonkey/gatekeep/pkg/auth"
	"github.com/platinummonkey/gatekeep/pkg/httputil"
	"github.com/platinummonkey/gatekeep/pkg/observability"
)

// CheckFunc inspects a request on behalf of an authenticated principal.
// It returns nil to allow or a Denial to stop the chain.
type CheckFunc func(r *http.Request, p *auth.Principal) *Denial

// Guard is one named authorization check. Guards hold no per-request state
// and can be shared across routes and goroutines.
type Guard struct {
	name  string
	check CheckFunc
}

// NewGuard creates a guard. The check only runs when a principal is
// attached; an anonymous request is denied as Unauthenticated first.
func NewGuard(name string, check CheckFunc) Guard {
	return Guard{name: name, check: check}
}

// Name returns the guard name used in logs, metrics and audit events
func (g Guard) Name() string {
	return g.name
}

// Evaluate runs the guard against the request
func (g Guard) Evaluate(r *http.Request) *Denial {
	p := auth.PrincipalFromContext(r.Context())
	if p == nil {
		return ErrUnauthenticated()
	}
	if g.check == nil {
		return nil
	}
	return g.check(r, p)
}

// Handler wraps next with this guard alone
func (g Guard) Handler(next http.Handler) http.Handler {
	return defaultAuthorizer.Chain(g)(next)
}

// Authorizer runs guard chains with logging, metrics, tracing and auditing
type Authorizer struct {
	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
	audit   audit.Logger
}

// AuthorizerOption configures an Authorizer
type AuthorizerOption func(*Authorizer)

// WithLogger sets a fixed logger instead of the request-scoped one
func WithLogger(logger *observability.Logger) AuthorizerOption {
	return func(a *Authorizer) {
		a.logger = logger
	}
}

// WithMetrics records guard decisions in Prometheus
func WithMetrics(metrics *observability.Metrics) AuthorizerOption {
	return func(a *Authorizer) {
		a.metrics = metrics
	}
}

// WithTracer overrides the global tracer
func WithTracer(tracer trace.Tracer) AuthorizerOption {
	return func(a *Authorizer) {
		a.tracer = tracer
	}
}

// WithAuditLogger sets a fixed audit sink instead of the one on the request context
func WithAuditLogger(logger audit.Logger) AuthorizerOption {
	return func(a *Authorizer) {
		a.audit = logger
	}
}

// NewAuthorizer creates an authorizer
func NewAuthorizer(opts ...AuthorizerOption) *Authorizer {
	a := &Authorizer{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var defaultAuthorizer = NewAuthorizer()

// Chain composes guards with the default authorizer
func Chain(guards ...Guard) func(http.Handler) http.Handler {
	return defaultAuthorizer.Chain(guards...)
}

// Chain composes guards into a middleware. Guards run in declaration order
// and the first denial is written as the response; no later guard runs.
func (a *Authorizer) Chain(guards ...Guard) func(http.Handler) http.Handler {
	chain := append([]Guard(nil), guards...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := a.tracerOrGlobal().Start(r.Context(), "authz.chain",
				trace.WithAttributes(observability.AttrAuthzGuards.Int(len(chain))))
			defer span.End()
			r = r.WithContext(ctx)

			for _, g := range chain {
				if d := g.Evaluate(r); d != nil {
					a.metrics.RecordDecision(g.name, "deny")
					span.SetAttributes(
						observability.AttrAuthzOutcome.String("deny"),
						observability.AttrAuthzGuard.String(g.name),
						observability.AttrAuthzDenialKind.String(string(d.Kind)),
					)
					span.SetStatus(codes.Error, string(d.Kind))
					a.deny(w, r, g, d)
					return
				}
				a.metrics.RecordDecision(g.name, "allow")
			}

			span.SetAttributes(observability.AttrAuthzOutcome.String("allow"))
			next.ServeHTTP(w, r)
		})
	}
}

func (a *Authorizer) tracerOrGlobal() trace.Tracer {
	if a.tracer != nil {
		return a.tracer
	}
	return observability.Tracer()
}

func (a *Authorizer) loggerFor(r *http.Request) *observability.Logger {
	if a.logger != nil {
		return a.logger
	}
	return observability.FromContext(r.Context())
}

func (a *Authorizer) auditFor(r *http.Request) audit.Logger {
	if a.audit != nil {
		return a.audit
	}
	return audit.FromContext(r.Context())
}

func (a *Authorizer) deny(w http.ResponseWriter, r *http.Request, g Guard, d *Denial) {
	p := auth.PrincipalFromContext(r.Context())
	a.metrics.RecordDenial(string(d.Kind))

	fields := map[string]interface{}{
		"guard":  g.name,
		"kind":   string(d.Kind),
		"path":   r.URL.Path,
		"method": r.Method,
	}
	if p != nil {
		fields["principal_id"] = p.ID
		fields["role"] = string(p.Role)
	}
	logger := observability.TraceLogger(r.Context(), a.loggerFor(r)).WithFields(fields)
	if d.cause != nil {
		logger.WithError(d.cause).Error("Authorization check failed")
	} else {
		logger.Warn("Request denied")
	}

	event := audit.NewEvent(r, audit.EventTypeAuthzAccessDenied, audit.EventStatusDenied)
	event.Guard = g.name
	event.DenialKind = string(d.Kind)
	event.StatusCode = d.Status()
	event.Message = d.Message
	for k, v := range d.Fields {
		event.Metadata[k] = v
	}
	if p != nil {
		event.PrincipalID = p.ID
		event.Role = string(p.Role)
		event.TenantID = p.TenantID
	}
	if err := a.auditFor(r).LogAuthorization(r.Context(), event); err != nil {
		a.loggerFor(r).WithError(err).Error("Failed to write audit event")
	}

	_ = httputil.WriteJSON(w, d.Status(), d.Body())
}
