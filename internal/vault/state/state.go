// Package state holds the process-local unlocked VMK: the single slot that
// owns a copy of the Vault Master Key while the vault is open, together with
// the backend it was unlocked under and a resettable auto-lock timer.
package state

import (
	"sync"
	"time"

	"github.com/nullsector/teevault/internal/errors"
	"github.com/nullsector/teevault/internal/vault/backend"
	"github.com/nullsector/teevault/internal/vault/primitives"
)

const defaultAutoLockTimeout = 5 * time.Minute

// State is a single-slot, mutex-guarded holder of the unlocked VMK. At most
// one unlocked slot exists at a time; calling Unlock while already unlocked
// scrubs the prior bytes before storing the new ones. The zero value is
// locked with the default auto-lock timeout.
type State struct {
	mu sync.Mutex

	vmk        []byte
	backend    backend.Backend
	unlockedAt time.Time
	timer      *time.Timer
	timeout    time.Duration
}

// New returns a locked State with the default auto-lock timeout.
func New() *State {
	return &State{timeout: defaultAutoLockTimeout}
}

// Unlock stores an owned copy of vmk, the unlock timestamp, and b, arming
// the auto-lock timer. If the state was already unlocked, the prior VMK
// bytes are scrubbed first.
func (s *State) Unlock(vmk []byte, b backend.Backend) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scrubLocked()

	owned := make([]byte, len(vmk))
	copy(owned, vmk)
	s.vmk = owned
	s.backend = b
	s.unlockedAt = time.Now()
	s.armLocked()
}

// Lock cancels any pending auto-lock timer and, if unlocked, scrubs the VMK
// and releases the slot.
func (s *State) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrubLocked()
}

// IsUnlocked reports whether the slot currently holds a VMK. Observation
// only: does not reset the auto-lock timer.
func (s *State) IsUnlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vmk != nil
}

// Backend returns the backend the vault was unlocked under, or nil if
// locked. Observation only: does not reset the auto-lock timer.
func (s *State) Backend() backend.Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend
}

// UnlockedAt returns the timestamp of the most recent unlock, and false if
// the state is locked. Observation only: does not reset the auto-lock
// timer.
func (s *State) UnlockedAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vmk == nil {
		return time.Time{}, false
	}
	return s.unlockedAt, true
}

// VMK returns a borrowed view of the unlocked VMK, valid until the next Lock
// or Unlock call. Fails with ErrLocked if the state is locked. Accessing the
// VMK resets the auto-lock timer to its full timeout.
func (s *State) VMK() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vmk == nil {
		return nil, errors.Wrap(errors.ErrLocked, "vault is locked")
	}
	s.armLocked()
	return s.vmk, nil
}

// SetAutoLockTimeout sets the auto-lock duration, clamping negative values
// to zero (disabled), and re-arms the timer with the new value measured
// from now.
func (s *State) SetAutoLockTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d < 0 {
		d = 0
	}
	s.timeout = d
	if s.vmk != nil {
		s.armLocked()
	}
}

// armLocked (re)starts the auto-lock timer from now using the current
// timeout. Timeout zero disables auto-lock. Caller must hold s.mu.
func (s *State) armLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.timeout <= 0 {
		return
	}
	s.timer = time.AfterFunc(s.timeout, s.autoLock)
}

// autoLock is the timer callback; it must be safe to invoke concurrently
// with ordinary accesses.
func (s *State) autoLock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrubLocked()
}

// scrubLocked zeros the VMK, stops the timer, and clears the slot. Caller
// must hold s.mu.
func (s *State) scrubLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.vmk != nil {
		primitives.Scrub(s.vmk)
		s.vmk = nil
	}
	s.backend = nil
	s.unlockedAt = time.Time{}
}
