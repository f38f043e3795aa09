package workload

import (
	"fmt"

	"github.com/sarchlab/fairarb/arbitration"
	"github.com/sarchlab/fairarb/sim/timing"
)

// DefaultHorizon bounds how far ahead a client looks for its next request.
const DefaultHorizon uint64 = 1 << 16

// ScriptedClient is a client whose request flag follows a pattern over the
// cycles of a clock. Its candidate bus signals are fixed.
type ScriptedClient struct {
	name    string
	clock   timing.TimeTeller
	freq    timing.Freq
	pattern RequestPattern
	signals arbitration.BusSignals
	horizon uint64
}

// NewScriptedClient creates a client that reads the current cycle from clock
// at frequency freq.
func NewScriptedClient(
	name string,
	clock timing.TimeTeller,
	freq timing.Freq,
	pattern RequestPattern,
	signals arbitration.BusSignals,
) *ScriptedClient {
	return &ScriptedClient{
		name:    name,
		clock:   clock,
		freq:    freq,
		pattern: pattern,
		signals: signals,
		horizon: DefaultHorizon,
	}
}

// WithHorizon sets the last cycle, exclusive, that NextRequest looks at.
func (c *ScriptedClient) WithHorizon(cycles uint64) *ScriptedClient {
	c.horizon = cycles
	return c
}

// Name returns the name of the client.
func (c *ScriptedClient) Name() string {
	return c.name
}

// Requesting asks the pattern about the current cycle.
func (c *ScriptedClient) Requesting() bool {
	return c.pattern.Requesting(c.freq.Cycle(c.clock.Now()))
}

// NextRequest returns the first cycle at or after from in which the client
// requests, within the horizon.
func (c *ScriptedClient) NextRequest(from uint64) (uint64, bool) {
	if f, ok := c.pattern.(Forecaster); ok {
		return f.NextRequest(from, c.horizon)
	}

	return scan(c.pattern, from, c.horizon)
}

// Err reports a failure of the request pattern, if the pattern can fail.
func (c *ScriptedClient) Err() error {
	if p, ok := c.pattern.(interface{ Err() error }); ok {
		if err := p.Err(); err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
	}

	return nil
}

// Address returns the candidate address.
func (c *ScriptedClient) Address() uint8 {
	return c.signals.Address
}

// Data returns the candidate data.
func (c *ScriptedClient) Data() uint32 {
	return c.signals.Data
}

// Direction returns the candidate direction.
func (c *ScriptedClient) Direction() arbitration.Direction {
	return c.signals.Direction
}
