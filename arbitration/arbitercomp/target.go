package arbitercomp

import (
	"github.com/sarchlab/fairarb/arbitration"
	"github.com/sarchlab/fairarb/sim/modeling"
	"github.com/sarchlab/fairarb/sim/timing"
)

// Target is the shared resource modeled as a component: a small register file
// addressed by the bus. The arbiter drives it during its tick and the target
// commits the transfer in a secondary tick of the same cycle, so it always
// sees the outputs of a completed step.
type Target struct {
	*modeling.TickingComponent

	latched Outputs
	pending bool

	registers map[uint8]uint32
	perClient map[arbitration.ClientID]uint64
	reads     uint64
	writes    uint64
	lastRead  uint32
}

// NewTarget creates a target that ticks at freq.
func NewTarget(name string, engine timing.Engine, freq timing.Freq) *Target {
	t := &Target{
		registers: make(map[uint8]uint32),
		perClient: make(map[arbitration.ClientID]uint64),
	}
	t.TickingComponent = modeling.NewSecondaryTickingComponent(
		name, engine, freq, t)

	return t
}

// Drive latches the outputs of a step. They are committed later in the cycle.
func (t *Target) Drive(_ timing.VTimeInSec, outputs Outputs) {
	t.Lock()
	t.latched = outputs
	t.pending = true
	t.Unlock()

	t.TickNow()
}

// Tick commits the latched transfer, if the bus is held.
func (t *Target) Tick() bool {
	if !t.pending {
		return false
	}

	t.pending = false

	client, ok := t.latched.Granted.Lowest()
	if !t.latched.Busy || !ok {
		return false
	}

	bus := t.latched.Bus
	switch bus.Direction {
	case arbitration.Write:
		t.registers[bus.Address] = bus.Data
		t.writes++
	case arbitration.Read:
		t.lastRead = t.registers[bus.Address]
		t.reads++
	}

	t.perClient[client]++

	return false
}

// Transfers returns the number of steps in which the bus was held.
func (t *Target) Transfers() uint64 {
	t.Lock()
	defer t.Unlock()

	return t.reads + t.writes
}

// Register returns the value stored at addr.
func (t *Target) Register(addr uint8) uint32 {
	t.Lock()
	defer t.Unlock()

	return t.registers[addr]
}

// TargetState is a snapshot of a target.
type TargetState struct {
	Name      string                          `json:"name"`
	Reads     uint64                          `json:"reads"`
	Writes    uint64                          `json:"writes"`
	LastRead  uint32                          `json:"last_read"`
	PerClient map[arbitration.ClientID]uint64 `json:"per_client"`
	Registers map[uint8]uint32                `json:"registers"`
}

// State returns a snapshot of the target.
func (t *Target) State() TargetState {
	t.Lock()
	defer t.Unlock()

	state := TargetState{
		Name:      t.Name(),
		Reads:     t.reads,
		Writes:    t.writes,
		LastRead:  t.lastRead,
		PerClient: make(map[arbitration.ClientID]uint64, len(t.perClient)),
		Registers: make(map[uint8]uint32, len(t.registers)),
	}

	for k, v := range t.perClient {
		state.PerClient[k] = v
	}

	for k, v := range t.registers {
		state.Registers[k] = v
	}

	return state
}

// Snapshot returns State as a value for simulation-wide snapshots.
func (t *Target) Snapshot() any {
	return t.State()
}
