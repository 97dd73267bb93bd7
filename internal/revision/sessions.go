package revision

import (
	"errors"
	"sync"
	"time"
)

var ErrTestNotFound = errors.New("revision: test not found")

// Sessions keeps running tests in memory until they are submitted or
// expire. Scoring needs the unstripped questions, which never leave the
// server. A test belongs to the subject that started it.
type Sessions struct {
	mu    sync.Mutex
	tests map[string]session
	ttl   time.Duration
}

type session struct {
	test  Test
	owner string
}

func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Sessions{tests: map[string]session{}, ttl: ttl}
}

func (s *Sessions) Put(t Test, owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tests[t.ID] = session{test: t, owner: owner}
}

// Submit scores and forgets the test. A test can be submitted once, and
// only by its owner; anyone else gets ErrTestNotFound and the test stays.
func (s *Sessions) Submit(id, owner string, answers map[string][]string, at time.Time) (Report, error) {
	s.mu.Lock()
	sess, ok := s.tests[id]
	ok = ok && sess.owner == owner
	if ok {
		delete(s.tests, id)
	}
	s.mu.Unlock()
	if !ok {
		return Report{}, ErrTestNotFound
	}
	return Score(sess.test, answers, at), nil
}

// Sweep drops tests started more than ttl before now and returns how many
// were removed.
func (s *Sessions) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.tests {
		if now.Sub(sess.test.StartedAt) > s.ttl {
			delete(s.tests, id)
			n++
		}
	}
	return n
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tests)
}
