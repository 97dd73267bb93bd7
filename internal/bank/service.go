package bank

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mind-engage/quizbank/internal/question"
)

type memoryStore struct {
	mu    sync.RWMutex
	banks map[string]question.Bank
	now   func() time.Time
}

func NewMemoryStore() Store {
	return &memoryStore{banks: map[string]question.Bank{}, now: time.Now}
}

func (m *memoryStore) Put(_ context.Context, b question.Bank) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = now
	}
	b.Questions = append([]question.Question{}, b.Questions...)
	m.banks[b.ID] = b
	return nil
}

func (m *memoryStore) Get(_ context.Context, id string) (question.Bank, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.banks[id]
	if !ok {
		return question.Bank{}, ErrNotFound
	}
	b.Questions = append([]question.Question{}, b.Questions...)
	return b, nil
}

func (m *memoryStore) List(_ context.Context, opts ListOpts) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(opts.Q))
	out := make([]Summary, 0, len(m.banks))
	for _, b := range m.banks {
		if q != "" && !strings.Contains(strings.ToLower(b.Name), q) {
			continue
		}
		out = append(out, summarize(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	lo, hi := page(len(out), opts)
	return out[lo:hi], nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.banks[id]; !ok {
		return ErrNotFound
	}
	delete(m.banks, id)
	return nil
}

func (m *memoryStore) AppendQuestions(_ context.Context, id string, qs []question.Question) (question.Bank, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.banks[id]
	if !ok {
		return question.Bank{}, ErrNotFound
	}
	b.Questions = mergeQuestions(b.Questions, qs)
	b.UpdatedAt = m.now().UTC()
	m.banks[id] = b
	b.Questions = append([]question.Question{}, b.Questions...)
	return b, nil
}
