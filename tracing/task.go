// Package tracing turns arbiter activity into tasks and feeds them to
// tracers. One task is one service of a client: it starts when the client is
// admitted, steps when it is granted, and ends when it releases.
package tracing

import "github.com/sarchlab/fairarb/sim/timing"

// A TaskStep represents a milestone in the processing of task
type TaskStep struct {
	Time timing.VTimeInSec `json:"time"`
	Step uint64            `json:"step"`
	What string            `json:"what"`
}

// A Task is a service of one client.
type Task struct {
	ID        string            `json:"id"`
	Kind      string            `json:"kind"`
	What      string            `json:"what"`
	Where     string            `json:"where"`
	Client    int               `json:"client"`
	StartStep uint64            `json:"start_step"`
	EndStep   uint64            `json:"end_step"`
	StartTime timing.VTimeInSec `json:"start_time"`
	EndTime   timing.VTimeInSec `json:"end_time"`
	Steps     []TaskStep        `json:"steps"`
}

// GrantStep returns the step in which the task was granted, if it was.
func (t Task) GrantStep() (uint64, bool) {
	for _, s := range t.Steps {
		if s.What == StepGrant {
			return s.Step, true
		}
	}

	return 0, false
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t Task) bool

// AllTasks accepts every task.
func AllTasks(Task) bool { return true }

// A Tracer can collect task traces
type Tracer interface {
	StartTask(task Task)
	StepTask(task Task)
	EndTask(task Task)
}
