package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/gatekeep/pkg/audit"
	"github.com/platinummonkey/gatekeep/pkg/auth"
	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

func newPrincipal(id string, role rbac.Role, tenant string, custom ...rbac.Permission) *auth.Principal {
	return &auth.Principal{
		ID:                id,
		Role:              role,
		TenantID:          tenant,
		Status:            auth.StatusActive,
		CustomPermissions: rbac.NewPermissionSet(custom...),
	}
}

// newRequest builds a request with an optional principal and route vars
func newRequest(method, target, body string, p *auth.Principal, vars map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), p))
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

// serve runs req through mw and reports whether the final handler ran
func serve(mw func(http.Handler) http.Handler, req *http.Request) (*httptest.ResponseRecorder, bool) {
	reached := false
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w, reached
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// evaluate runs a single guard and returns its denial
func evaluate(g Guard, req *http.Request) *Denial {
	return g.Evaluate(req)
}

// recordingAudit captures audit events
type recordingAudit struct {
	mu     sync.Mutex
	events []*audit.AuditEvent
}

func (a *recordingAudit) LogAuthorization(ctx context.Context, event *audit.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
	return nil
}

func (a *recordingAudit) Close() error { return nil }

func (a *recordingAudit) all() []*audit.AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*audit.AuditEvent(nil), a.events...)
}
