package exam

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prepdesk/exam-service/internal/metrics"
	"github.com/prepdesk/exam-service/internal/parser"
)

// Notifier receives timer-driven session events so the transport layer can
// push them to the connected renderer. Commands issued by the renderer get
// their results synchronously and are not echoed through the notifier.
type Notifier interface {
	SessionTick(sessionID uuid.UUID, remaining int)
	SessionExpired(sessionID uuid.UUID, report *Report)
}

// ManagerConfig holds session-lifetime knobs.
type ManagerConfig struct {
	Duration     time.Duration // fixed exam length
	TickInterval time.Duration // countdown granularity, one second in production
	SessionTTL   time.Duration // idle eviction threshold for the janitor
}

// Manager owns all live sessions and serializes every command (user-issued or
// timer-driven) through a per-session lock, so a tick that hits zero submits
// atomically with respect to interleaved user actions.
type Manager struct {
	cfg      ManagerConfig
	logger   zerolog.Logger
	notifier Notifier

	mu       sync.RWMutex
	sessions map[uuid.UUID]*managed
}

type managed struct {
	id       uuid.UUID
	examID   string
	mu       sync.Mutex
	session  *Session
	stopCh   chan struct{}
	lastSeen time.Time
}

// NewManager creates an empty session registry.
func NewManager(cfg ManagerConfig, logger zerolog.Logger) *Manager {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	return &Manager{
		cfg:      cfg,
		logger:   logger.With().Str("component", "exam_manager").Logger(),
		sessions: make(map[uuid.UUID]*managed),
	}
}

// SetNotifier wires the transport callback. Must be called before any
// session is started.
func (m *Manager) SetNotifier(n Notifier) { m.notifier = n }

// Create builds a new session, loads (and shuffles) the question sequence
// and registers it under a fresh id. The session stays Idle until Start.
func (m *Manager) Create(examID string, questions []parser.Question) (uuid.UUID, *Session, error) {
	sess := NewSession(m.cfg.Duration, nil)
	if err := sess.Load(questions); err != nil {
		return uuid.Nil, nil, err
	}

	id := uuid.New()
	m.mu.Lock()
	m.sessions[id] = &managed{id: id, examID: examID, session: sess, lastSeen: time.Now()}
	m.mu.Unlock()

	metrics.ActiveSessions.Inc()
	m.logger.Info().
		Str("session_id", id.String()).
		Str("exam_id", examID).
		Int("questions", len(questions)).
		Msg("session created")
	return id, sess, nil
}

// ExamID returns the bank identifier a session was created from.
func (m *Manager) ExamID(id uuid.UUID) (string, error) {
	ms, err := m.lookup(id)
	if err != nil {
		return "", err
	}
	return ms.examID, nil
}

// Start transitions a session to InProgress and launches its countdown.
func (m *Manager) Start(id uuid.UUID) error {
	ms, err := m.lookup(id)
	if err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err := ms.session.Start(); err != nil {
		return err
	}
	ms.stopCh = make(chan struct{})
	go m.runCountdown(ms, ms.stopCh)

	metrics.SessionsStarted.Inc()
	return nil
}

// SelectOption records a selection on the session's current question.
func (m *Manager) SelectOption(id uuid.UUID, questionID int, letter string) error {
	return m.withSession(id, func(s *Session) error {
		return s.SelectOption(questionID, letter)
	})
}

// Goto moves the session cursor.
func (m *Manager) Goto(id uuid.UUID, index int) error {
	return m.withSession(id, func(s *Session) error {
		return s.Goto(index)
	})
}

// Submit ends the attempt and returns the scoring report. The countdown is
// stopped before the lock is released so no further tick can fire.
func (m *Manager) Submit(id uuid.UUID) (*Report, error) {
	ms, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	report, err := ms.session.Submit()
	if err != nil {
		return nil, err
	}
	ms.stopCountdownLocked()
	metrics.SessionsSubmitted.Inc()
	return report, nil
}

// Restart re-arms the session to Idle, keeping the loaded sequence.
func (m *Manager) Restart(id uuid.UUID) error {
	ms, err := m.lookup(id)
	if err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err := ms.session.Restart(); err != nil {
		return err
	}
	ms.stopCountdownLocked()
	return nil
}

// View returns a read-callback over the session state under its lock.
func (m *Manager) View(id uuid.UUID, fn func(*Session)) error {
	return m.withSession(id, func(s *Session) error {
		fn(s)
		return nil
	})
}

// Remove drops a session and stops its countdown.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	ms, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	ms.mu.Lock()
	ms.stopCountdownLocked()
	ms.mu.Unlock()
	metrics.ActiveSessions.Dec()
	m.logger.Info().Str("session_id", id.String()).Msg("session removed")
}

// RunJanitor evicts sessions idle longer than the configured TTL. Started as
// a background worker by the application.
func (m *Manager) RunJanitor(ctx context.Context) error {
	if m.cfg.SessionTTL <= 0 {
		return nil
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.evictStale()
		}
	}
}

func (m *Manager) evictStale() {
	cutoff := time.Now().Add(-m.cfg.SessionTTL)

	m.mu.RLock()
	var stale []uuid.UUID
	for id, ms := range m.sessions {
		ms.mu.Lock()
		idle := ms.lastSeen.Before(cutoff)
		ms.mu.Unlock()
		if idle {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range stale {
		m.logger.Info().Str("session_id", id.String()).Msg("evicting idle session")
		m.Remove(id)
	}
}

// runCountdown drives one session's timer. Each tick takes the session lock,
// so expiry-forced submission cannot interleave with a user command.
func (m *Manager) runCountdown(ms *managed, stopCh chan struct{}) {
	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if done := m.tickOnce(ms, stopCh); done {
				return
			}
		}
	}
}

func (m *Manager) tickOnce(ms *managed, stopCh chan struct{}) bool {
	ms.mu.Lock()
	// Submit or Restart may have stopped this countdown while we waited.
	if ms.stopCh != stopCh {
		ms.mu.Unlock()
		return true
	}
	expired := ms.session.Tick()
	remaining := ms.session.Remaining()
	var report *Report
	if expired {
		report = ms.session.Report()
		ms.stopCountdownLocked()
		metrics.SessionsSubmitted.Inc()
	}
	ms.mu.Unlock()

	if m.notifier == nil {
		return expired
	}
	if expired {
		m.notifier.SessionExpired(ms.id, report)
		return true
	}
	m.notifier.SessionTick(ms.id, remaining)
	return false
}

func (ms *managed) stopCountdownLocked() {
	if ms.stopCh != nil {
		close(ms.stopCh)
		ms.stopCh = nil
	}
}

func (m *Manager) lookup(id uuid.UUID) (*managed, error) {
	m.mu.RLock()
	ms, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	ms.mu.Lock()
	ms.lastSeen = time.Now()
	ms.mu.Unlock()
	return ms, nil
}

func (m *Manager) withSession(id uuid.UUID, fn func(*Session) error) error {
	ms, err := m.lookup(id)
	if err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return fn(ms.session)
}
