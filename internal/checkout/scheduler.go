package checkout

import (
	"sync"
	"time"
)

// Scheduler runs deferred actions keyed by owner. Scheduling a key that
// already has a pending action replaces it. Stop cancels everything and
// rejects later calls.
type Scheduler struct {
	mu      sync.Mutex
	seq     uint64
	pending map[string]scheduled
	stopped bool
}

type scheduled struct {
	id    uint64
	timer *time.Timer
}

// NewScheduler constructs an idle Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{pending: make(map[string]scheduled)}
}

// Schedule runs fn after delay unless the key is cancelled or rescheduled
// first. It returns false once the scheduler is stopped.
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	if prev, ok := s.pending[key]; ok {
		prev.timer.Stop()
	}

	s.seq++
	id := s.seq
	s.pending[key] = scheduled{
		id: id,
		timer: time.AfterFunc(delay, func() {
			if !s.release(key, id) {
				return
			}
			fn()
		}),
	}
	return true
}

// Cancel drops the pending action for key and reports whether one existed.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.pending[key]
	if !ok {
		return false
	}
	prev.timer.Stop()
	delete(s.pending, key)
	return true
}

// Stop cancels all pending actions.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for key, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, key)
	}
}

// release removes the entry if it still belongs to the firing timer.
func (s *Scheduler) release(key string, id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[key]
	if !ok || p.id != id {
		return false
	}
	delete(s.pending, key)
	return true
}
