package arbitration

import "fmt"

// BusMux routes the granted client's candidate signals onto the shared bus.
// It has no state of its own; the selection is recomputed from the grant
// every time.
type BusMux struct {
	clients []Client
}

// NewBusMux creates a multiplexer over the clients. Client i of the list is
// ClientID i.
func NewBusMux(clients []Client) (*BusMux, error) {
	if len(clients) == 0 || len(clients) > MaxClients {
		return nil, fmt.Errorf("%w: %d clients", ErrInvalidClientCount,
			len(clients))
	}

	return &BusMux{clients: clients}, nil
}

// Select returns the signals of the granted client, or the zero value when
// the grant is idle.
func (m *BusMux) Select(g Grant) BusSignals {
	id, ok := g.Client()
	if !ok {
		return BusSignals{}
	}

	return SignalsOf(m.clients[id])
}

// SignalsOf collects a client's candidate bus signals.
func SignalsOf(c Client) BusSignals {
	return BusSignals{
		Address:   c.Address(),
		Data:      c.Data(),
		Direction: c.Direction(),
	}
}
