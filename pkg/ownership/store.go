package ownership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/gatekeep/pkg/middleware"
	"github.com/platinummonkey/gatekeep/pkg/observability"
)

var (
	// ErrNotFound is returned when no row matches the resource ID
	ErrNotFound = errors.New("resource not found")
	// ErrUnknownResource is returned for a kind that was never registered
	ErrUnknownResource = errors.New("unknown resource kind")
	// ErrNotTenantScoped is returned for a tenant lookup on a kind without a tenant column
	ErrNotTenantScoped = errors.New("resource kind has no tenant column")
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Kind maps a resource kind to the table and columns that record its owner.
// TenantColumn is optional; without it the kind cannot be looked up per tenant.
type Kind struct {
	Name         string
	Table        string
	IDColumn     string
	OwnerColumn  string
	TenantColumn string
}

// Validate checks that every identifier is a plain SQL name
func (k Kind) Validate() error {
	if k.Name == "" {
		return fmt.Errorf("resource kind name is required")
	}
	for _, ident := range []string{k.Table, k.IDColumn, k.OwnerColumn} {
		if !identifierPattern.MatchString(ident) {
			return fmt.Errorf("resource kind %s: invalid identifier %q", k.Name, ident)
		}
	}
	if k.TenantColumn != "" && !identifierPattern.MatchString(k.TenantColumn) {
		return fmt.Errorf("resource kind %s: invalid identifier %q", k.Name, k.TenantColumn)
	}
	return nil
}

// DefaultKinds returns the owned resources of the LMS schema
func DefaultKinds() []Kind {
	return []Kind{
		{Name: "courses", Table: "courses", IDColumn: "id", OwnerColumn: "instructor_id", TenantColumn: "tenant_id"},
		{Name: "lessons", Table: "lessons", IDColumn: "id", OwnerColumn: "created_by", TenantColumn: "tenant_id"},
		{Name: "quizzes", Table: "quizzes", IDColumn: "id", OwnerColumn: "created_by", TenantColumn: "tenant_id"},
		{Name: "assignments", Table: "assignments", IDColumn: "id", OwnerColumn: "created_by", TenantColumn: "tenant_id"},
		{Name: "discussions", Table: "discussions", IDColumn: "id", OwnerColumn: "author_id", TenantColumn: "tenant_id"},
		{Name: "mentorships", Table: "mentorships", IDColumn: "id", OwnerColumn: "mentor_id", TenantColumn: "tenant_id"},
	}
}

type registeredKind struct {
	Kind
	query       string
	tenantQuery string
}

// Store resolves resource owners from SQL tables
type Store struct {
	db      *sql.DB
	kinds   map[string]registeredKind
	cache   *lru.LRU[string, string]
	metrics *observability.Metrics
	logger  *observability.Logger
}

// Option configures a Store
type Option func(*Store)

// WithCache keeps up to size owner lookups for ttl
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Store) {
		if size > 0 {
			s.cache = lru.NewLRU[string, string](size, nil, ttl)
		}
	}
}

// WithMetrics records lookups and cache hits
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Store) {
		s.metrics = metrics
	}
}

// WithLogger sets the logger
func WithLogger(logger *observability.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a store for the given kinds. driver selects the
// placeholder style of the generated queries.
func NewStore(db *sql.DB, driver string, kinds []Kind, opts ...Option) (*Store, error) {
	s := &Store{
		db:    db,
		kinds: make(map[string]registeredKind, len(kinds)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	p1, p2 := "?", "?"
	if driver == DriverPostgres {
		p1, p2 = "$1", "$2"
	}

	for _, k := range kinds {
		if err := k.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.kinds[k.Name]; dup {
			return nil, fmt.Errorf("resource kind %s registered twice", k.Name)
		}
		rk := registeredKind{
			Kind: k,
			query: fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
				k.OwnerColumn, k.Table, k.IDColumn, p1),
		}
		if k.TenantColumn != "" {
			rk.tenantQuery = fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s AND %s = %s",
				k.OwnerColumn, k.Table, k.IDColumn, p1, k.TenantColumn, p2)
		}
		s.kinds[k.Name] = rk
	}

	return s, nil
}

// Kinds returns the registered kind names, sorted
func (s *Store) Kinds() []string {
	names := make([]string, 0, len(s.kinds))
	for name := range s.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func cacheKey(kind, tenantID, id string) string {
	return kind + "/" + tenantID + "/" + id
}

// LookupOwner returns the owner ID of a resource. A NULL owner comes back
// as the empty string, which never matches a principal.
func (s *Store) LookupOwner(ctx context.Context, kind, id string) (string, error) {
	k, ok := s.kinds[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownResource, kind)
	}
	return s.lookup(ctx, k, k.query, "", id)
}

// LookupTenantOwner is LookupOwner restricted to one tenant. A resource that
// exists in another tenant is reported as ErrNotFound.
func (s *Store) LookupTenantOwner(ctx context.Context, kind, tenantID, id string) (string, error) {
	k, ok := s.kinds[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownResource, kind)
	}
	if k.tenantQuery == "" {
		return "", fmt.Errorf("%w: %s", ErrNotTenantScoped, kind)
	}
	if tenantID == "" {
		return "", fmt.Errorf("%w: %s %s without tenant", ErrNotFound, kind, id)
	}
	return s.lookup(ctx, k, k.tenantQuery, tenantID, id)
}

func (s *Store) lookup(ctx context.Context, k registeredKind, query, tenantID, id string) (string, error) {
	key := cacheKey(k.Name, tenantID, id)
	if s.cache != nil {
		if owner, hit := s.cache.Get(key); hit {
			s.metrics.RecordOwnershipCache(true)
			return owner, nil
		}
		s.metrics.RecordOwnershipCache(false)
	}

	args := []interface{}{id}
	if tenantID != "" {
		args = append(args, tenantID)
	}

	var owner sql.NullString
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.metrics.RecordOwnershipLookup(k.Name, "not_found")
		return "", fmt.Errorf("%w: %s %s", ErrNotFound, k.Name, id)
	case err != nil:
		s.metrics.RecordOwnershipLookup(k.Name, "error")
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"resource":    k.Name,
			"resource_id": id,
			"tenant_id":   tenantID,
		}).Error("Owner lookup failed")
		return "", fmt.Errorf("failed to look up owner of %s %s: %w", k.Name, id, err)
	}

	s.metrics.RecordOwnershipLookup(k.Name, "found")
	if s.cache != nil {
		s.cache.Add(key, owner.String)
	}
	return owner.String, nil
}

// Invalidate drops the cached owners of a resource, for example after a
// transfer
func (s *Store) Invalidate(kind, id string) {
	if s.cache == nil {
		return
	}
	suffix := "/" + id
	for _, key := range s.cache.Keys() {
		if strings.HasPrefix(key, kind+"/") && strings.HasSuffix(key, suffix) {
			s.cache.Remove(key)
		}
	}
}

// ForResource adapts the store to the ownership guard for one kind
func (s *Store) ForResource(kind string) middleware.OwnerLookup {
	return middleware.OwnerLookupFunc(func(ctx context.Context, id string) (string, error) {
		return s.LookupOwner(ctx, kind, id)
	})
}

// ForTenantResource adapts the store to the tenant-scoped ownership guard
// for one kind
func (s *Store) ForTenantResource(kind string) middleware.TenantOwnerLookup {
	return middleware.TenantOwnerLookupFunc(func(ctx context.Context, tenantID, id string) (string, error) {
		return s.LookupTenantOwner(ctx, kind, tenantID, id)
	})
}

// RecordStats publishes connection pool statistics
func (s *Store) RecordStats() {
	s.metrics.RecordDBStats(s.db.Stats())
}

// ScheduleStats registers RecordStats on a cron scheduler, e.g. "@every 15s"
func (s *Store) ScheduleStats(c *cron.Cron, spec string) (cron.EntryID, error) {
	id, err := c.AddFunc(spec, s.RecordStats)
	if err != nil {
		return 0, fmt.Errorf("invalid stats schedule %q: %w", spec, err)
	}
	return id, nil
}
