// Package memory holds exported summaries in process memory. It backs tests
// and deployments without a spreadsheet configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/NT912/FinWise-sub000/internal/core"
	"github.com/NT912/FinWise-sub000/internal/export"
)

var _ export.SummaryWriter = (*Store)(nil)

type Store struct {
	mu        sync.Mutex
	summaries map[string]core.MonthlySummary
}

func New() *Store {
	return &Store{summaries: make(map[string]core.MonthlySummary)}
}

// WriteMonthlySummary stores the latest summary for (owner, year, month).
func (s *Store) WriteMonthlySummary(_ context.Context, sum core.MonthlySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[key(sum.OwnerID, sum.Year, sum.Month)] = sum
	return nil
}

// Get returns the stored summary for (owner, year, month), if any.
func (s *Store) Get(owner string, year, month int) (core.MonthlySummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, ok := s.summaries[key(owner, year, month)]
	return sum, ok
}

// Len returns the number of stored summaries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.summaries)
}

func key(owner string, year, month int) string {
	return fmt.Sprintf("%s/%04d-%02d", owner, year, month)
}
