package tracing

import (
	"sort"
	"sync"
)

// ClientStats summarizes the completed services of one client, in steps.
type ClientStats struct {
	Client      int     `json:"client"`
	Services    uint64  `json:"services"`
	AverageWait float64 `json:"average_wait"`
	MaxWait     uint64  `json:"max_wait"`
	AverageHold float64 `json:"average_hold"`
}

// WaitTimeTracer measures how long clients wait between admission and grant
// and how long they hold the grant. It only counts tasks that end.
type WaitTimeTracer struct {
	lock   sync.Mutex
	filter TaskFilter
	stats  map[int]*ClientStats
}

// NewWaitTimeTracer creates a new WaitTimeTracer.
func NewWaitTimeTracer(filter TaskFilter) *WaitTimeTracer {
	return &WaitTimeTracer{
		filter: filter,
		stats:  make(map[int]*ClientStats),
	}
}

// StartTask does nothing.
func (t *WaitTimeTracer) StartTask(_ Task) {}

// StepTask does nothing.
func (t *WaitTimeTracer) StepTask(_ Task) {}

// EndTask folds the task into the client's statistics.
func (t *WaitTimeTracer) EndTask(task Task) {
	if !t.filter(task) {
		return
	}

	grantStep, ok := task.GrantStep()
	if !ok {
		return
	}

	wait := grantStep - task.StartStep
	hold := task.EndStep - grantStep

	t.lock.Lock()
	defer t.lock.Unlock()

	s, ok := t.stats[task.Client]
	if !ok {
		s = &ClientStats{Client: task.Client}
		t.stats[task.Client] = s
	}

	n := float64(s.Services)
	s.AverageWait = (s.AverageWait*n + float64(wait)) / (n + 1)
	s.AverageHold = (s.AverageHold*n + float64(hold)) / (n + 1)
	s.Services++

	if wait > s.MaxWait {
		s.MaxWait = wait
	}
}

// Stats returns the statistics of every client seen, ordered by client.
func (t *WaitTimeTracer) Stats() []ClientStats {
	t.lock.Lock()
	defer t.lock.Unlock()

	stats := make([]ClientStats, 0, len(t.stats))
	for _, s := range t.stats {
		stats = append(stats, *s)
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Client < stats[j].Client
	})

	return stats
}

// TotalServices returns the number of completed services.
func (t *WaitTimeTracer) TotalServices() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	var total uint64
	for _, s := range t.stats {
		total += s.Services
	}

	return total
}
