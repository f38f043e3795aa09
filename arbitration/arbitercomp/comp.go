// Package arbitercomp wraps the arbiter into a ticking component that owns
// the shared bus. Each tick is one arbitration step.
package arbitercomp

import (
	"github.com/sarchlab/fairarb/arbitration"
	"github.com/sarchlab/fairarb/sim/hooking"
	"github.com/sarchlab/fairarb/sim/modeling"
	"github.com/sarchlab/fairarb/sim/timing"
)

// HookPosStep is invoked after every step with the StepResult as the item and
// the Outputs as the detail.
var HookPosStep = &hooking.HookPos{Name: "Arbiter Step"}

// A Resource is the shared resource at the far end of the bus.
type Resource interface {
	// Drive is called once per step with the outputs of the step.
	Drive(now timing.VTimeInSec, outputs Outputs)
}

// A Forecaster is a client that knows the first cycle, at or after from, in
// which it will request. An idle component sleeps until then.
type Forecaster interface {
	NextRequest(from uint64) (uint64, bool)
}

// Outputs are the signals the component produces after a step.
type Outputs struct {
	Granted arbitration.ClientSet
	Busy    bool
	Bus     arbitration.BusSignals
}

// Comp is the arbiter component.
type Comp struct {
	*modeling.TickingComponent

	clients  []arbitration.Client
	sampler  *arbitration.RequestSampler
	arbiter  *arbitration.Arbiter
	mux      *arbitration.BusMux
	resource Resource

	stepLimit  uint64
	wakeup     *wakeup
	lastResult arbitration.StepResult
	outputs    Outputs
}

// Tick samples the clients, runs one arbitration step, and drives the bus.
func (c *Comp) Tick() bool {
	if c.stepLimitReached() {
		return false
	}

	requests := c.sampler.Sample()
	result := c.arbiter.Step(requests)

	c.lastResult = result
	c.outputs = Outputs{
		Granted: result.Grant.OneHot(),
		Busy:    !result.Grant.IsIdle(),
		Bus:     c.mux.Select(result.Grant),
	}

	if c.resource != nil {
		c.resource.Drive(c.Now(), c.outputs)
	}

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    HookPosStep,
			Item:   result,
			Detail: c.outputs,
		})
	}

	if c.stepLimit > 0 {
		return !c.stepLimitReached()
	}

	if !requests.IsEmpty() || !c.arbiter.Members().IsEmpty() {
		return true
	}

	c.sleepUntilNextRequest()

	return false
}

// sleepUntilNextRequest schedules a wake-up at the earliest cycle in which a
// forecasting client requests. Clients that cannot forecast must be served
// through Wake.
func (c *Comp) sleepUntilNextRequest() {
	now := c.Freq.Cycle(c.Now())

	var (
		next  uint64
		found bool
	)

	for _, client := range c.clients {
		f, ok := client.(Forecaster)
		if !ok {
			continue
		}

		cycle, ok := f.NextRequest(now + 1)
		if ok && (!found || cycle < next) {
			next, found = cycle, true
		}
	}

	if found {
		c.wakeup.at(c.Freq.NCyclesLater(int(next-now), c.Now()))
	}
}

// wakeup restarts a sleeping component at a given time.
type wakeup struct {
	comp *Comp
}

func (w *wakeup) at(time timing.VTimeInSec) {
	evt := timing.MakeTickEvent(w, time)
	w.comp.Engine.Schedule(evt)
}

// Handle ticks the component unless it is already ticking in this cycle.
func (w *wakeup) Handle(_ timing.Event) error {
	w.comp.TickNow()
	return nil
}

func (c *Comp) stepLimitReached() bool {
	return c.stepLimit > 0 && c.arbiter.StepCount() >= c.stepLimit
}

// Arbiter returns the arbiter driven by the component, mainly for attaching
// hooks.
func (c *Comp) Arbiter() *arbitration.Arbiter {
	return c.arbiter
}

// Clients returns the clients in ID order.
func (c *Comp) Clients() []arbitration.Client {
	return c.clients
}

// Outputs returns the outputs of the last step.
func (c *Comp) Outputs() Outputs {
	c.Lock()
	defer c.Unlock()

	return c.outputs
}

// Wake makes the component tick in the next cycle. Callers use it when a
// client that cannot forecast starts requesting while the component sleeps.
func (c *Comp) Wake() {
	c.TickLater()
}

// State is a snapshot of the component used for reporting.
type State struct {
	Name       string                 `json:"name"`
	Time       timing.VTimeInSec      `json:"time"`
	Step       uint64                 `json:"step"`
	Requests   []arbitration.ClientID `json:"requests"`
	LastAction string                 `json:"last_action"`
	Granted    string                 `json:"granted"`
	Busy       bool                   `json:"busy"`
	Queue      []arbitration.ClientID `json:"queue"`
	Members    []arbitration.ClientID `json:"members"`
	Bus        arbitration.BusSignals `json:"bus"`
}

// State returns a snapshot of the component.
func (c *Comp) State() State {
	c.Lock()
	defer c.Unlock()

	return State{
		Name:       c.Name(),
		Time:       c.Now(),
		Step:       c.arbiter.StepCount(),
		Requests:   c.lastResult.Requests.Members(),
		LastAction: c.lastResult.Action.String(),
		Granted:    c.outputs.Granted.Bits(c.arbiter.NumClients()),
		Busy:       c.outputs.Busy,
		Queue:      c.arbiter.Queued(),
		Members:    c.arbiter.Members().Members(),
		Bus:        c.outputs.Bus,
	}
}

// Snapshot returns State as a value for simulation-wide snapshots.
func (c *Comp) Snapshot() any {
	return c.State()
}
