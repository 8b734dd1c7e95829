// Package state holds the shared, mutable calibration and color
// configuration (spec §4.8): a single owner mutates it under a lock
// while the pipeline's hot loop reads a lock-free, immutable snapshot
// published after each validated change, mirroring the registry-mutex
// plus read-only-map pattern the teacher uses for its stream table
// (internal/streams.streams/streamsMu in the reference go2rtc tree).
package state

import (
	"sync"
	"sync/atomic"

	"github.com/vidloop/keystoned/pkg/calib"
	"github.com/vidloop/keystoned/pkg/colorstate"
)

// Snapshot is an immutable view of the current configuration, safe to
// share across goroutines without copying. Calib is itself immutable
// once published: mutators always clone before editing.
type Snapshot struct {
	Calib   *calib.State
	Color   colorstate.State
	Version uint64
}

// Manager owns the single writable copy of calibration and color state
// and publishes a fresh Snapshot after every accepted mutation.
type Manager struct {
	mu      sync.Mutex
	calib   *calib.State
	color   colorstate.State
	version uint64

	published atomic.Pointer[Snapshot]
}

// New builds a Manager at its default calibration and color state for
// the given working resolution (spec §4.1's source size).
func New(width, height int) *Manager {
	m := &Manager{
		calib: calib.New(width, height),
		color: colorstate.Default(),
	}
	m.publish()
	return m
}

// Snapshot returns the current published view. It never blocks on
// mutators: callers on the hot path call this once per frame.
func (m *Manager) Snapshot() *Snapshot {
	return m.published.Load()
}

func (m *Manager) publish() {
	m.version++
	m.published.Store(&Snapshot{
		Calib:   m.calib.Clone(),
		Color:   m.color,
		Version: m.version,
	})
}

// MutateCalib runs fn against a private clone of the current calibration
// state, validates it, and on success publishes it as the new state. fn
// returning an error, or the resulting state failing Validate, leaves
// the published state unchanged.
func (m *Manager) MutateCalib(fn func(*calib.State) error) (*calib.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.calib.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}

	m.calib = next
	m.publish()
	return next.Clone(), nil
}

// MutateColor runs apply against the current color state and, if apply
// succeeds and the result validates, publishes it.
func (m *Manager) MutateColor(apply func(colorstate.State) (colorstate.State, error)) (colorstate.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := apply(m.color)
	if err != nil {
		return m.color, err
	}
	if err := next.Validate(); err != nil {
		return m.color, err
	}

	m.color = next
	m.publish()
	return next, nil
}

// ResetCalib restores default corners and drops edge points, keeping
// Enabled untouched, then publishes the result.
func (m *Manager) ResetCalib() *calib.State {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.calib.Clone()
	next.Reset()
	m.calib = next
	m.publish()
	return next.Clone()
}
