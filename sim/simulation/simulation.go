// Package simulation keeps the engine and the components of a run together
// so that tools can find them by name.
package simulation

import (
	"encoding/json"
	"io"
	"os"

	"github.com/sarchlab/fairarb/sim/modeling"
	"github.com/sarchlab/fairarb/sim/timing"
)

// A Snapshotter can describe its current state as a JSON-serializable value.
type Snapshotter interface {
	Snapshot() any
}

// A Simulation provides the service requires to define a simulation.
type Simulation struct {
	engine     timing.Engine
	components map[string]modeling.Component
	order      []string
}

// NewSimulation creates a new simulation.
func NewSimulation() *Simulation {
	return &Simulation{
		components: make(map[string]modeling.Component),
	}
}

// RegisterEngine registers the engine used in the simulation.
func (s *Simulation) RegisterEngine(e timing.Engine) {
	s.engine = e
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() timing.Engine {
	return s.engine
}

// RegisterComponent registers a component. Names must be unique.
func (s *Simulation) RegisterComponent(c modeling.Component) {
	name := c.Name()

	if _, ok := s.components[name]; ok {
		panic("component " + name + " already registered")
	}

	s.components[name] = c
	s.order = append(s.order, name)
}

// GetComponentByName returns the component with the given name, or nil.
func (s *Simulation) GetComponentByName(name string) modeling.Component {
	return s.components[name]
}

// Components returns the components in registration order.
func (s *Simulation) Components() []modeling.Component {
	comps := make([]modeling.Component, 0, len(s.order))
	for _, name := range s.order {
		comps = append(comps, s.components[name])
	}

	return comps
}

// Snapshot collects the state of every component that can describe it,
// keyed by component name.
func (s *Simulation) Snapshot() map[string]any {
	data := make(map[string]any)

	for name, c := range s.components {
		if sn, ok := c.(Snapshotter); ok {
			data[name] = sn.Snapshot()
		}
	}

	return data
}

// Save writes the snapshot of the simulation as JSON, together with the
// current time. Components are keyed by name in sorted order.
func (s *Simulation) Save(w io.Writer) error {
	out := struct {
		Now        timing.VTimeInSec `json:"now"`
		Components map[string]any    `json:"components"`
	}{
		Components: s.Snapshot(),
	}

	if s.engine != nil {
		out.Now = s.engine.Now()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

// SaveFile writes the snapshot into a file.
func (s *Simulation) SaveFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err := s.Save(file); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}
