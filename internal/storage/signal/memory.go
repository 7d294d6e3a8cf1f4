package signal

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/notifier"
)

// MemoryStore is a bounded in-memory Store. The oldest alerts are dropped
// once maxSize is reached.
type MemoryStore struct {
	mu      sync.RWMutex
	alerts  []notifier.Alert
	maxSize int
}

func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize < 1 {
		maxSize = 1
	}
	return &MemoryStore{
		alerts:  make([]notifier.Alert, 0, min(maxSize, 256)),
		maxSize: maxSize,
	}
}

func (m *MemoryStore) Save(ctx context.Context, alert notifier.Alert) (notifier.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert.ID = uuid.NewString()
	if alert.GeneratedAt.IsZero() {
		alert.GeneratedAt = time.Now()
	}
	m.alerts = append(m.alerts, alert)
	if len(m.alerts) > m.maxSize {
		m.alerts = m.alerts[len(m.alerts)-m.maxSize:]
	}
	return alert, nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*notifier.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.alerts {
		if m.alerts[i].ID == id {
			a := m.alerts[i]
			return &a, nil
		}
	}
	return nil, core.ErrNoData
}

func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]notifier.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []notifier.Alert{}
	for i := len(m.alerts) - 1; i >= 0; i-- {
		if matches(m.alerts[i], filter) {
			result = append(result, m.alerts[i])
		}
	}

	if filter.Offset >= len(result) {
		return []notifier.Alert{}, nil
	}
	result = result[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *MemoryStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, a := range m.alerts {
		if matches(a, filter) {
			n++
		}
	}
	return n, nil
}

func matches(a notifier.Alert, f ListFilter) bool {
	if f.Symbol != "" && !strings.EqualFold(a.Symbol, f.Symbol) {
		return false
	}
	if f.Class != "" && a.Class != f.Class {
		return false
	}
	if f.Kind != "" && a.Kind != f.Kind {
		return false
	}
	if !f.From.IsZero() && a.GeneratedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && a.GeneratedAt.After(f.To) {
		return false
	}
	return true
}
