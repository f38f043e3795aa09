package tracing

import (
	"fmt"
	"log"
	"sync"

	"github.com/sarchlab/fairarb/arbitration"
	"github.com/sarchlab/fairarb/sim/hooking"
	"github.com/sarchlab/fairarb/sim/id"
	"github.com/sarchlab/fairarb/sim/timing"
)

// Task kinds and step names produced by ServiceHook.
const (
	KindService = "service"
	StepGrant   = "grant"
)

// ServiceHook listens to an arbiter and reports each client service to the
// tracers as a task.
type ServiceHook struct {
	lock       sync.Mutex
	where      string
	timeTeller timing.TimeTeller
	tracers    []Tracer
	inflight   map[arbitration.ClientID]Task
}

// NewServiceHook creates a hook that labels tasks with where. timeTeller may
// be nil, in which case task times stay zero.
func NewServiceHook(
	where string,
	timeTeller timing.TimeTeller,
	tracers ...Tracer,
) *ServiceHook {
	return &ServiceHook{
		where:      where,
		timeTeller: timeTeller,
		tracers:    tracers,
		inflight:   make(map[arbitration.ClientID]Task),
	}
}

// CollectTrace attaches a tracer to the arbiter. It is the usual way of
// tracing a single tracer.
func CollectTrace(
	where string,
	arbiter *arbitration.Arbiter,
	timeTeller timing.TimeTeller,
	tracer Tracer,
) *ServiceHook {
	h := NewServiceHook(where, timeTeller, tracer)
	arbiter.AcceptHook(h)

	return h
}

// Func handles the arbiter hook positions.
func (h *ServiceHook) Func(ctx hooking.HookCtx) {
	client, ok := ctx.Item.(arbitration.ClientID)
	if !ok {
		return
	}

	step, _ := ctx.Detail.(uint64)

	h.lock.Lock()
	defer h.lock.Unlock()

	switch ctx.Pos {
	case arbitration.HookPosAdmit:
		h.start(client, step)
	case arbitration.HookPosPromote:
		h.grant(client, step)
	case arbitration.HookPosRelease:
		h.end(client, step)
	}
}

func (h *ServiceHook) now() timing.VTimeInSec {
	if h.timeTeller == nil {
		return 0
	}

	return h.timeTeller.Now()
}

func (h *ServiceHook) start(client arbitration.ClientID, step uint64) {
	if _, busy := h.inflight[client]; busy {
		log.Panicf("client %d admitted twice", client)
	}

	task := Task{
		ID:        id.Generate(),
		Kind:      KindService,
		What:      fmt.Sprintf("client %d", client),
		Where:     h.where,
		Client:    int(client),
		StartStep: step,
		StartTime: h.now(),
	}
	h.inflight[client] = task

	for _, t := range h.tracers {
		t.StartTask(task)
	}
}

func (h *ServiceHook) grant(client arbitration.ClientID, step uint64) {
	task, ok := h.inflight[client]
	if !ok {
		log.Panicf("client %d granted without admission", client)
	}

	task.Steps = append(task.Steps, TaskStep{
		Time: h.now(),
		Step: step,
		What: StepGrant,
	})
	h.inflight[client] = task

	for _, t := range h.tracers {
		t.StepTask(task)
	}
}

func (h *ServiceHook) end(client arbitration.ClientID, step uint64) {
	task, ok := h.inflight[client]
	if !ok {
		log.Panicf("client %d released without admission", client)
	}

	delete(h.inflight, client)

	task.EndStep = step
	task.EndTime = h.now()

	for _, t := range h.tracers {
		t.EndTask(task)
	}
}

// InflightTasks returns the services that have not ended, ordered by client.
func (h *ServiceHook) InflightTasks() []Task {
	h.lock.Lock()
	defer h.lock.Unlock()

	var tasks []Task

	for c := arbitration.ClientID(0); len(tasks) < len(h.inflight); c++ {
		if task, ok := h.inflight[c]; ok {
			tasks = append(tasks, task)
		}
	}

	return tasks
}

// Reset forgets the services in flight. Call it together with
// Arbiter.Reset.
func (h *ServiceHook) Reset() {
	h.lock.Lock()
	h.inflight = make(map[arbitration.ClientID]Task)
	h.lock.Unlock()
}
