package makemode

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/scrtch/internal/metrics"
	"github.com/mmynk/scrtch/internal/models"
)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithIdleTimeout sets how long an untouched session lives.
func WithIdleTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.idleTimeout = d
	}
}

// WithSweepInterval sets how often Run looks for idle sessions.
func WithSweepInterval(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.sweepInterval = d
	}
}

// WithSessionOptions applies opts to every session the manager starts.
func WithSessionOptions(opts ...Option) ManagerOption {
	return func(m *Manager) {
		m.sessionOpts = append(m.sessionOpts, opts...)
	}
}

// WithManagerClock sets the clock used for idle tracking.
func WithManagerClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithManagerLogger sets the logger.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

type entry struct {
	session  *Session
	owner    string
	lastUsed time.Time
}

// Manager hosts sessions by id for remote callers.
type Manager struct {
	idleTimeout   time.Duration
	sweepInterval time.Duration
	sessionOpts   []Option
	clock         func() time.Time
	logger        *slog.Logger

	mu       sync.Mutex
	sessions map[string]*entry

	// Session tick loops run under this context.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates an empty manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		idleTimeout:   2 * time.Hour,
		sweepInterval: time.Minute,
		clock:         time.Now,
		logger:        slog.Default(),
		sessions:      make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

// Start opens a ticking session for owner. owner may be empty for signed
// out callers; anyone holding the id can then use the session.
func (m *Manager) Start(owner string, recipe models.Recipe) (string, *Session) {
	id := uuid.New().String()
	s := NewSession(recipe, m.sessionOpts...)
	s.Start(m.ctx)

	m.mu.Lock()
	m.sessions[id] = &entry{session: s, owner: owner, lastUsed: m.clock()}
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.MakeModeSessions.Set(float64(n))
	m.logger.Debug("Started make mode session", "session_id", id, "recipe_id", recipe.ID, "user_id", owner)
	return id, s
}

// Get returns owner's session and marks it used.
func (m *Manager) Get(owner, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok || (e.owner != "" && e.owner != owner) {
		return nil, ErrSessionNotFound
	}
	e.lastUsed = m.clock()
	return e.session, nil
}

// End closes and forgets owner's session.
func (m *Manager) End(owner, id string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if !ok || (e.owner != "" && e.owner != owner) {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	e.session.Close()
	metrics.MakeModeSessions.Set(float64(n))
	return nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the idle timeout and returns
// how many it closed.
func (m *Manager) Sweep() int {
	now := m.clock()

	m.mu.Lock()
	var idle []*Session
	for id, e := range m.sessions {
		if now.Sub(e.lastUsed) > m.idleTimeout {
			idle = append(idle, e.session)
			delete(m.sessions, id)
			m.logger.Debug("Closing idle make mode session", "session_id", id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	metrics.MakeModeSessions.Set(float64(n))
	return len(idle)
}

// Run sweeps idle sessions until ctx ends.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Info("Swept idle make mode sessions", "count", n)
			}
		}
	}
}

// Close ends every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range sessions {
		e.session.Close()
	}
	m.cancel()
	metrics.MakeModeSessions.Set(0)
}
