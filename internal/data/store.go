package data

import (
	"sync"
	"time"

	"grid-constraints/internal/checks"

	"github.com/google/uuid"
)

// StoredReport is a finished check run kept for later retrieval.
type StoredReport struct {
	ID        string         `json:"id"`
	Snapshot  string         `json:"snapshot"`
	CreatedAt time.Time      `json:"created_at"`
	Result    *checks.Result `json:"result"`

	expiresAt time.Time
}

// ReportStore keeps check reports in memory for a limited time.
type ReportStore struct {
	mu    sync.RWMutex
	store map[string]*StoredReport
	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewReportStore creates a store and starts its cleanup goroutine.
// Call Close to stop it.
func NewReportStore(ttl time.Duration) *ReportStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	s := &ReportStore{
		store: make(map[string]*StoredReport),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	go s.cleanup(5 * time.Minute)
	return s
}

// Put stores r under a new id and returns the stored report.
func (s *ReportStore) Put(snapshot string, r *checks.Result) *StoredReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rep := &StoredReport{
		ID:        uuid.NewString(),
		Snapshot:  snapshot,
		CreatedAt: now,
		Result:    r,
		expiresAt: now.Add(s.ttl),
	}
	s.store[rep.ID] = rep
	return rep
}

// Get retrieves a report if available and not expired
func (s *ReportStore) Get(id string) (*StoredReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rep, ok := s.store[id]
	if !ok || s.now().After(rep.expiresAt) {
		return nil, false
	}
	return rep, true
}

func (s *ReportStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.store)
}

func (s *ReportStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *ReportStore) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *ReportStore) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, rep := range s.store {
		if now.After(rep.expiresAt) {
			delete(s.store, id)
		}
	}
}
