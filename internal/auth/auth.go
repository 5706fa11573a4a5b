// Package auth implements the per-tenant login gate: tenant lookup, token
// check with lockout, and signed session tokens.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"conversation-insights-go/internal/logger"
	"conversation-insights-go/internal/metrics"
)

var (
	ErrUnknownTenant       = errors.New("unknown client id")
	ErrInvalidToken        = errors.New("invalid token")
	ErrLockedOut           = errors.New("too many failed attempts")
	ErrRegistryUnavailable = errors.New("tenant registry unavailable")
)

type attempts struct {
	failures    int
	lockedUntil time.Time
}

type Authenticator struct {
	registry    Registry
	maxAttempts int
	lockout     time.Duration
	now         func() time.Time

	mu    sync.Mutex
	state map[string]*attempts
}

func NewAuthenticator(registry Registry, maxAttempts int, lockout time.Duration) *Authenticator {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Authenticator{
		registry:    registry,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		now:         time.Now,
		state:       map[string]*attempts{},
	}
}

// Authenticate checks clientID and token against the registry. After
// maxAttempts consecutive bad tokens a registered client id is locked for the
// lockout duration, even for a correct token.
func (a *Authenticator) Authenticate(ctx context.Context, clientID, token string) (Tenant, error) {
	log := logger.New().WithTenant(clientID).WithField("component", "auth")
	if a.locked(clientID) {
		metrics.LoginAttempts.WithLabelValues("locked").Inc()
		log.Warn("login rejected: locked out")
		return Tenant{}, ErrLockedOut
	}

	tenants, err := a.registry.Tenants(ctx)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		log.WithError(err).Error("tenant registry unavailable")
		return Tenant{}, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	for _, t := range tenants {
		if t.ClientID != clientID {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(t.Token)) != 1 || t.Token == "" {
			a.fail(clientID)
			metrics.LoginAttempts.WithLabelValues("invalid_token").Inc()
			log.Warn("login rejected: invalid token")
			return Tenant{}, ErrInvalidToken
		}
		a.reset(clientID)
		metrics.LoginAttempts.WithLabelValues("ok").Inc()
		log.Info("login ok")
		return t, nil
	}
	// only registered ids are tracked, so unknown ids cannot grow the state map
	metrics.LoginAttempts.WithLabelValues("unknown_tenant").Inc()
	log.Warn("login rejected: unknown client id")
	return Tenant{}, ErrUnknownTenant
}

func (a *Authenticator) locked(clientID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.state[clientID]
	return ok && a.now().Before(s.lockedUntil)
}

func (a *Authenticator) fail(clientID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.state[clientID]
	if !ok {
		s = &attempts{}
		a.state[clientID] = s
	}
	s.failures++
	if s.failures >= a.maxAttempts {
		s.lockedUntil = a.now().Add(a.lockout)
		s.failures = 0
	}
}

func (a *Authenticator) reset(clientID string) {
	a.mu.Lock()
	delete(a.state, clientID)
	a.mu.Unlock()
}
