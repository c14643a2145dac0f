package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hamed0406/pagecheck/internal/domain"
	"github.com/hamed0406/pagecheck/internal/repo"
)

// Store keeps a bounded history of reports plus alert state, in process only.
type Store struct {
	mu      sync.RWMutex
	limit   int
	reports []domain.RunReport
	latest  map[string]domain.RunReport
	alerts  map[string]repo.AlertRecord
}

// New keeps at most limit reports of history; limit <= 0 means 256.
func New(limit int) *Store {
	if limit <= 0 {
		limit = 256
	}
	return &Store{
		limit:   limit,
		reports: make([]domain.RunReport, 0, limit),
		latest:  make(map[string]domain.RunReport),
		alerts:  make(map[string]repo.AlertRecord),
	}
}

func (m *Store) Append(ctx context.Context, r domain.RunReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.reports) == m.limit {
		copy(m.reports, m.reports[1:])
		m.reports = m.reports[:m.limit-1]
	}
	m.reports = append(m.reports, r)

	cur, ok := m.latest[r.Target.URL]
	if !ok || !r.StartedAt.Before(cur.StartedAt) {
		m.latest[r.Target.URL] = r
	}
	return nil
}

func (m *Store) Latest(ctx context.Context) ([]domain.RunReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.RunReport, 0, len(m.latest))
	for _, r := range m.latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Target.URL < out[j].Target.URL })
	return out, nil
}

// History returns stored reports, oldest first.
func (m *Store) History(ctx context.Context) []domain.RunReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.RunReport(nil), m.reports...)
}

// ---- AlertStore ----

func (m *Store) Get(ctx context.Context, url string) (*repo.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.alerts[url]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Store) Set(ctx context.Context, url string, verdict domain.Verdict, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.alerts[url]
	rec.URL = url
	rec.LastVerdict = verdict
	if !sentAt.IsZero() {
		ts := sentAt
		rec.LastSentAt = &ts
	}
	m.alerts[url] = rec
	return nil
}

var (
	_ repo.ReportStore = (*Store)(nil)
	_ repo.AlertStore  = (*Store)(nil)
)
