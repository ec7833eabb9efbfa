package exam

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNotifier struct {
	mu      sync.Mutex
	ticks   []int
	expired []*Report
}

func (n *stubNotifier) SessionTick(_ uuid.UUID, remaining int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ticks = append(n.ticks, remaining)
}

func (n *stubNotifier) SessionExpired(_ uuid.UUID, report *Report) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expired = append(n.expired, report)
}

func (n *stubNotifier) expiredCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.expired)
}

func newTestManager(duration, tick time.Duration) (*Manager, *stubNotifier) {
	m := NewManager(ManagerConfig{
		Duration:     duration,
		TickInterval: tick,
		SessionTTL:   time.Hour,
	}, zerolog.Nop())
	n := &stubNotifier{}
	m.SetNotifier(n)
	return m, n
}

func TestManagerLifecycle(t *testing.T) {
	m, _ := newTestManager(time.Hour, time.Second)

	id, sess, err := m.Create("demo", questionSet(3))
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, sess.Status())

	examID, err := m.ExamID(id)
	require.NoError(t, err)
	assert.Equal(t, "demo", examID)

	require.NoError(t, m.Start(id))

	var current int
	require.NoError(t, m.View(id, func(s *Session) { current = s.CurrentIndex() }))
	assert.Equal(t, 0, current)

	require.NoError(t, m.Goto(id, 2))

	var q int
	require.NoError(t, m.View(id, func(s *Session) { q = s.Questions()[2].ID }))
	require.NoError(t, m.SelectOption(id, q, "A"))

	report, err := m.Submit(id)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)

	m.Remove(id)
	assert.ErrorIs(t, m.Start(id), ErrSessionNotFound)
}

func TestManagerUnknownSession(t *testing.T) {
	m, _ := newTestManager(time.Hour, time.Second)
	id := uuid.New()

	assert.ErrorIs(t, m.Start(id), ErrSessionNotFound)
	assert.ErrorIs(t, m.Goto(id, 0), ErrSessionNotFound)
	assert.ErrorIs(t, m.SelectOption(id, 1, "A"), ErrSessionNotFound)
	_, err := m.Submit(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.ExamID(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerCountdownExpiry(t *testing.T) {
	m, n := newTestManager(2*time.Second, 2*time.Millisecond)

	id, _, err := m.Create("demo", questionSet(2))
	require.NoError(t, err)
	require.NoError(t, m.Start(id))

	require.Eventually(t, func() bool {
		return n.expiredCount() == 1
	}, time.Second, 5*time.Millisecond, "countdown should force submission")

	var status Status
	require.NoError(t, m.View(id, func(s *Session) { status = s.Status() }))
	assert.Equal(t, StatusSubmitted, status)

	n.mu.Lock()
	report := n.expired[0]
	n.mu.Unlock()
	require.NotNil(t, report)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 0, report.Score, "nothing answered before expiry")

	// The stopped countdown must not fire again.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, n.expiredCount())
}

func TestManagerSubmitStopsCountdown(t *testing.T) {
	m, n := newTestManager(time.Hour, time.Millisecond)

	id, _, err := m.Create("demo", questionSet(1))
	require.NoError(t, err)
	require.NoError(t, m.Start(id))

	_, err = m.Submit(id)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, n.expiredCount())
}

func TestManagerRestartRearmsCountdown(t *testing.T) {
	m, n := newTestManager(time.Hour, time.Millisecond)

	id, _, err := m.Create("demo", questionSet(2))
	require.NoError(t, err)
	require.NoError(t, m.Start(id))
	require.NoError(t, m.Restart(id))

	var status Status
	var remaining int
	require.NoError(t, m.View(id, func(s *Session) {
		status = s.Status()
		remaining = s.Remaining()
	}))
	assert.Equal(t, StatusIdle, status)
	assert.Equal(t, int(time.Hour/time.Second), remaining)

	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, n.expiredCount(), "restart must cancel the countdown")

	// The same loaded sequence restarts cleanly.
	require.NoError(t, m.Start(id))
	_, err = m.Submit(id)
	require.NoError(t, err)
}
