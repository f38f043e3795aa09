package arbitercomp

import (
	"errors"
	"fmt"

	"github.com/sarchlab/fairarb/arbitration"
	"github.com/sarchlab/fairarb/sim/modeling"
	"github.com/sarchlab/fairarb/sim/naming"
	"github.com/sarchlab/fairarb/sim/timing"
)

// Builder can build arbiter components.
type Builder struct {
	engine        timing.Engine
	freq          timing.Freq
	clients       []arbitration.Client
	resource      Resource
	queueCapacity int
	stepLimit     uint64
}

// MakeBuilder creates a builder with default configurations.
func MakeBuilder() Builder {
	return Builder{
		freq: 1 * timing.GHz,
	}
}

// WithEngine sets the engine that drives the component.
func (b Builder) WithEngine(e timing.Engine) Builder {
	b.engine = e
	return b
}

// WithFreq sets the frequency of the component. One cycle is one step.
func (b Builder) WithFreq(freq timing.Freq) Builder {
	b.freq = freq
	return b
}

// WithClients sets the clients. The position in the list is the client ID.
func (b Builder) WithClients(clients ...arbitration.Client) Builder {
	b.clients = append([]arbitration.Client{}, clients...)
	return b
}

// WithResource sets the shared resource that receives the outputs of every
// step, for example a Target.
func (b Builder) WithResource(r Resource) Builder {
	b.resource = r
	return b
}

// WithQueueCapacity overrides the admission queue capacity.
func (b Builder) WithQueueCapacity(n int) Builder {
	b.queueCapacity = n
	return b
}

// WithStepLimit makes the component tick every cycle until it has taken n
// steps, whether or not anyone requests. Zero means ticking only while some
// client is requesting, queued, or granted, and sleeping until the next
// forecast request otherwise.
func (b Builder) WithStepLimit(n uint64) Builder {
	b.stepLimit = n
	return b
}

// Build creates the component. It panics on configuration errors.
func (b Builder) Build(name string) *Comp {
	c, err := b.BuildE(name)
	if err != nil {
		panic(err)
	}

	return c
}

// BuildE creates the component or reports why the configuration is invalid.
func (b Builder) BuildE(name string) (*Comp, error) {
	if err := naming.ValidateName(name); err != nil {
		return nil, err
	}

	if b.engine == nil {
		return nil, errors.New("arbitercomp: engine is not set")
	}

	var opts []arbitration.Option
	if b.queueCapacity != 0 {
		opts = append(opts, arbitration.WithQueueCapacity(b.queueCapacity))
	}

	arbiter, err := arbitration.NewArbiter(len(b.clients), opts...)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", name, err)
	}

	sampler, err := arbitration.NewRequestSampler(b.clients)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", name, err)
	}

	mux, err := arbitration.NewBusMux(b.clients)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", name, err)
	}

	c := &Comp{
		clients:   b.clients,
		sampler:   sampler,
		arbiter:   arbiter,
		mux:       mux,
		resource:  b.resource,
		stepLimit: b.stepLimit,
	}
	c.TickingComponent = modeling.NewTickingComponent(name, b.engine, b.freq, c)
	c.wakeup = &wakeup{comp: c}

	return c, nil
}
