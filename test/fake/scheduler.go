// api/test/fake/scheduler.go
package fake

import (
	"sync"

	"github.com/openparts/registry/api/search"
)

// Scheduler counts rebuild requests instead of indexing anything.
type Scheduler struct {
	mu       sync.Mutex
	rebuilds int
}

var _ search.Scheduler = &Scheduler{}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) ScheduleRebuild() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuilds++
}

func (s *Scheduler) Stop() {}

// Rebuilds reports how many times a rebuild was requested.
func (s *Scheduler) Rebuilds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuilds
}
