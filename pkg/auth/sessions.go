package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/gatekeep/pkg/observability"
	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

// storedPrincipal is the wire form of a session record. Every field is a
// plain string so validation happens in one place.
type storedPrincipal struct {
	ID                string   `json:"id"`
	Role              string   `json:"role"`
	TenantID          string   `json:"tenantId"`
	Status            string   `json:"status"`
	CustomPermissions []string `json:"customPermissions,omitempty"`
	Email             string   `json:"email,omitempty"`
}

// SessionStore resolves session tokens to principals using Redis
type SessionStore struct {
	redis     *redis.Client
	generator *TokenGenerator
	prefix    string
	ttl       time.Duration
	logger    *observability.Logger
}

// NewSessionStore creates a Redis-backed session store
func NewSessionStore(redisClient *redis.Client, prefix string, ttl time.Duration, logger *observability.Logger) *SessionStore {
	if prefix == "" {
		prefix = "gatekeep"
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &SessionStore{
		redis:     redisClient,
		generator: NewTokenGenerator(),
		prefix:    prefix,
		ttl:       ttl,
		logger:    logger,
	}
}

func (s *SessionStore) key(token string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, s.generator.HashToken(token))
}

// Create issues a new token for the principal and stores the session
func (s *SessionStore) Create(ctx context.Context, p *Principal) (string, error) {
	token, _, _, err := s.generator.GenerateToken()
	if err != nil {
		return "", err
	}
	if err := s.Save(ctx, token, p); err != nil {
		return "", err
	}
	return token, nil
}

// Save stores the principal under the given token
func (s *SessionStore) Save(ctx context.Context, token string, p *Principal) error {
	if p == nil {
		return fmt.Errorf("%w: nil principal", ErrInvalidPrincipal)
	}
	data, err := json.Marshal(storedPrincipal{
		ID:                p.ID,
		Role:              string(p.Role),
		TenantID:          p.TenantID,
		Status:            string(p.Status),
		CustomPermissions: p.CustomPermissions.Strings(),
		Email:             p.Email,
	})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(token), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Delete removes a session
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.redis.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Lookup resolves a token to its principal. Unknown roles or statuses make
// the whole record invalid; unknown custom permissions are dropped.
func (s *SessionStore) Lookup(ctx context.Context, token string) (*Principal, error) {
	if err := s.generator.ValidateTokenFormat(token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}

	data, err := s.redis.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var stored storedPrincipal
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrincipal, err)
	}
	return s.toPrincipal(stored)
}

func (s *SessionStore) toPrincipal(stored storedPrincipal) (*Principal, error) {
	if stored.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidPrincipal)
	}
	role, err := rbac.ParseRole(stored.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrincipal, err)
	}
	status, err := ParseAccountStatus(stored.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrincipal, err)
	}

	custom, rejected := rbac.ParsePermissionSet(stored.CustomPermissions)
	if len(rejected) > 0 {
		s.logger.WithFields(map[string]interface{}{
			"principal_id": stored.ID,
			"rejected":     rejected,
		}).Warn("Dropped unknown custom permissions")
	}

	return &Principal{
		ID:                stored.ID,
		Role:              role,
		TenantID:          stored.TenantID,
		Status:            status,
		CustomPermissions: custom,
		Email:             stored.Email,
	}, nil
}
