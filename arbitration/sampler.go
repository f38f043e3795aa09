package arbitration

import "fmt"

// RequestSampler reads the request flags of a fixed list of clients. Client i
// of the list is ClientID i.
type RequestSampler struct {
	clients []Client
}

// NewRequestSampler creates a sampler over the clients.
func NewRequestSampler(clients []Client) (*RequestSampler, error) {
	if len(clients) == 0 || len(clients) > MaxClients {
		return nil, fmt.Errorf("%w: %d clients", ErrInvalidClientCount,
			len(clients))
	}

	return &RequestSampler{clients: clients}, nil
}

// NumClients returns the number of sampled clients.
func (s *RequestSampler) NumClients() int {
	return len(s.clients)
}

// Sample returns the clients that are requesting right now.
func (s *RequestSampler) Sample() ClientSet {
	var requests ClientSet
	for i, c := range s.clients {
		if c.Requesting() {
			requests = requests.With(ClientID(i))
		}
	}

	return requests
}
