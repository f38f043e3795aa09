// Package modeling provides the building blocks of simulated hardware
// components.
package modeling

import (
	"sync"

	"github.com/sarchlab/fairarb/sim/hooking"
	"github.com/sarchlab/fairarb/sim/naming"
	"github.com/sarchlab/fairarb/sim/timing"
)

// A Component is an element that is being simulated.
type Component interface {
	naming.Named
	timing.Handler
	hooking.Hookable
}

// ComponentBase provides some functions that other component can use.
type ComponentBase struct {
	sync.Mutex
	hooking.HookableBase

	name string
}

// NewComponentBase creates a new ComponentBase
func NewComponentBase(name string) *ComponentBase {
	naming.NameMustBeValid(name)

	c := new(ComponentBase)
	c.name = name

	return c
}

// Name returns the name of the component.
func (c *ComponentBase) Name() string {
	return c.name
}

// TickingComponent is a type of component that update states from cycle to
// cycle. A programmer would only need to program a tick function for a ticking
// component.
type TickingComponent struct {
	*ComponentBase
	*timing.TickScheduler

	ticker timing.Ticker
}

// NewTickingComponent creates a new ticking component.
func NewTickingComponent(
	name string,
	engine timing.Engine,
	freq timing.Freq,
	ticker timing.Ticker,
) *TickingComponent {
	tc := new(TickingComponent)
	tc.TickScheduler = timing.NewTickScheduler(tc, engine, freq)
	tc.ComponentBase = NewComponentBase(name)
	tc.ticker = ticker

	return tc
}

// NewSecondaryTickingComponent creates a new ticking component whose ticks
// run after all the primary events of the same cycle.
func NewSecondaryTickingComponent(
	name string,
	engine timing.Engine,
	freq timing.Freq,
	ticker timing.Ticker,
) *TickingComponent {
	tc := new(TickingComponent)
	tc.TickScheduler = timing.NewSecondaryTickScheduler(tc, engine, freq)
	tc.ComponentBase = NewComponentBase(name)
	tc.ticker = ticker

	return tc
}

// Handle triggers the tick function of the TickingComponent. The component
// keeps ticking as long as the tick makes progress.
func (c *TickingComponent) Handle(_ timing.Event) error {
	c.Lock()
	madeProgress := c.ticker.Tick()
	c.Unlock()

	if madeProgress {
		c.TickLater()
	}

	return nil
}
