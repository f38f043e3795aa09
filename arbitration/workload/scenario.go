package workload

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sarchlab/fairarb/arbitration"
	"github.com/sarchlab/fairarb/sim/naming"
	"github.com/sarchlab/fairarb/sim/timing"
	"gopkg.in/yaml.v3"
)

// ErrBadScenario wraps all scenario validation errors.
var ErrBadScenario = errors.New("bad scenario")

// ClientSpec describes one client of a scenario.
type ClientSpec struct {
	Name      string `yaml:"name"`
	Address   uint8  `yaml:"address"`
	Data      uint32 `yaml:"data"`
	Direction string `yaml:"direction"`
	Request   string `yaml:"request"`
}

// Scenario is a description of a run: the clients, what they drive, and
// when they request.
type Scenario struct {
	Name    string       `yaml:"name"`
	FreqMHz float64      `yaml:"freq_mhz"`
	Steps   uint64       `yaml:"steps"`
	Clients []ClientSpec `yaml:"clients"`

	patterns []RequestPattern
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseScenario(data)
}

// ParseScenario parses and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	s := &Scenario{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadScenario, err)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		s.Name = "Scenario"
	}

	if s.FreqMHz == 0 {
		s.FreqMHz = 1000
	}

	if s.FreqMHz < 0 {
		return fmt.Errorf("%w: negative frequency", ErrBadScenario)
	}

	if s.Steps == 0 {
		return fmt.Errorf("%w: steps must be positive", ErrBadScenario)
	}

	if len(s.Clients) == 0 || len(s.Clients) > arbitration.MaxClients {
		return fmt.Errorf("%w: %d clients", ErrBadScenario, len(s.Clients))
	}

	s.patterns = make([]RequestPattern, len(s.Clients))

	for i := range s.Clients {
		spec := &s.Clients[i]

		if spec.Name == "" {
			spec.Name = naming.BuildNameWithIndex("", "Client", i)
		}

		if err := naming.ValidateName(spec.Name); err != nil {
			return fmt.Errorf("%w: client %d: %v", ErrBadScenario, i, err)
		}

		if _, err := parseDirection(spec.Direction); err != nil {
			return fmt.Errorf("%w: client %d: %v", ErrBadScenario, i, err)
		}

		pattern, err := ParsePattern(spec.Request)
		if err != nil {
			return fmt.Errorf("%w: client %d: %v", ErrBadScenario, i, err)
		}

		s.patterns[i] = pattern
	}

	return nil
}

func parseDirection(s string) (arbitration.Direction, error) {
	switch strings.ToLower(s) {
	case "", "write", "w":
		return arbitration.Write, nil
	case "read", "r":
		return arbitration.Read, nil
	}

	return 0, fmt.Errorf("unknown direction %q", s)
}

// Err joins the evaluation failures of the request expressions met so far.
func (s *Scenario) Err() error {
	var errs []error

	for i, p := range s.patterns {
		f, ok := p.(interface{ Err() error })
		if !ok {
			continue
		}

		if err := f.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Clients[i].Name, err))
		}
	}

	return errors.Join(errs...)
}

// Freq returns the clock frequency of the scenario.
func (s *Scenario) Freq() timing.Freq {
	return timing.Freq(s.FreqMHz) * timing.MHz
}

// BuildClients creates the scripted clients, in ID order, reading time from
// clock. The clients look for future requests up to the end of the scenario.
func (s *Scenario) BuildClients(clock timing.TimeTeller) []*ScriptedClient {
	clients := make([]*ScriptedClient, len(s.Clients))

	for i, spec := range s.Clients {
		dir, _ := parseDirection(spec.Direction)
		clients[i] = NewScriptedClient(
			spec.Name,
			clock,
			s.Freq(),
			s.patterns[i],
			arbitration.BusSignals{
				Address:   spec.Address,
				Data:      spec.Data,
				Direction: dir,
			},
		).WithHorizon(s.Steps)
	}

	return clients
}
