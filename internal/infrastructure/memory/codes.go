package memory

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/classsync/internal/domain"
)

// CodeStore keeps pending login codes in process memory.
// It only works for a single instance; multi-instance deployments use dynamo.CodeStore.
type CodeStore struct {
	mu    sync.Mutex
	codes map[string]domain.PendingCode
	now   func() time.Time
	done  chan struct{}
	once  sync.Once
}

// NewCodeStore creates a store and starts a janitor that purges expired codes every sweep.
func NewCodeStore(sweep time.Duration) *CodeStore {
	s := &CodeStore{
		codes: make(map[string]domain.PendingCode),
		now:   time.Now,
		done:  make(chan struct{}),
	}
	if sweep > 0 {
		go s.cleanup(sweep)
	}
	return s
}

// WithClock replaces the time source. Intended for tests.
func (s *CodeStore) WithClock(now func() time.Time) *CodeStore {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	return s
}

func (s *CodeStore) Put(_ context.Context, p *domain.PendingCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[p.Identity] = *p
	return nil
}

func (s *CodeStore) Get(_ context.Context, identity string) (*domain.PendingCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.live(identity)
	if !ok {
		return nil, fmt.Errorf("login code not found: %w", domain.ErrNotFound)
	}
	return &p, nil
}

func (s *CodeStore) Take(_ context.Context, identity string) (*domain.PendingCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.live(identity)
	if !ok {
		return nil, fmt.Errorf("login code not found: %w", domain.ErrNotFound)
	}
	delete(s.codes, identity)
	return &p, nil
}

func (s *CodeStore) TakeMatching(_ context.Context, identity, code string) (*domain.PendingCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.live(identity)
	if !ok || subtle.ConstantTimeCompare([]byte(p.Code), []byte(code)) != 1 {
		return nil, fmt.Errorf("login code not found: %w", domain.ErrNotFound)
	}
	delete(s.codes, identity)
	return &p, nil
}

// Len reports the number of stored entries, expired ones included until the next sweep.
func (s *CodeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes)
}

// Close stops the janitor.
func (s *CodeStore) Close() {
	s.once.Do(func() { close(s.done) })
}

// live must be called with mu held. Expired entries are dropped on sight.
func (s *CodeStore) live(identity string) (domain.PendingCode, bool) {
	p, ok := s.codes[identity]
	if !ok {
		return domain.PendingCode{}, false
	}
	if p.Expired(s.now()) {
		delete(s.codes, identity)
		return domain.PendingCode{}, false
	}
	return p, true
}

func (s *CodeStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, p := range s.codes {
		if p.Expired(now) {
			delete(s.codes, id)
		}
	}
}

func (s *CodeStore) cleanup(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}
