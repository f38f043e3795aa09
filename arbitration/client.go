package arbitration

import (
	"fmt"
	"math/bits"
	"strings"
)

// ClientID identifies a client. IDs are dense, starting from 0.
type ClientID int

// MaxClients is the largest number of clients an arbiter can serve.
const MaxClients = 63

// ClientSet is a set of clients, bit i standing for client i.
type ClientSet uint64

// SetOf builds a ClientSet from a list of IDs.
func SetOf(ids ...ClientID) ClientSet {
	var s ClientSet
	for _, id := range ids {
		s = s.With(id)
	}

	return s
}

// Has tells if the client is in the set.
func (s ClientSet) Has(id ClientID) bool {
	return s&(1<<uint(id)) != 0
}

// With returns the set with the client added.
func (s ClientSet) With(id ClientID) ClientSet {
	return s | 1<<uint(id)
}

// Without returns the set with the client removed.
func (s ClientSet) Without(id ClientID) ClientSet {
	return s &^ (1 << uint(id))
}

// IsEmpty tells if no client is in the set.
func (s ClientSet) IsEmpty() bool {
	return s == 0
}

// Count returns the number of clients in the set.
func (s ClientSet) Count() int {
	return bits.OnesCount64(uint64(s))
}

// Lowest returns the client with the smallest ID.
func (s ClientSet) Lowest() (ClientID, bool) {
	if s == 0 {
		return 0, false
	}

	return ClientID(bits.TrailingZeros64(uint64(s))), true
}

// Members lists the clients in ascending ID order.
func (s ClientSet) Members() []ClientID {
	ids := make([]ClientID, 0, s.Count())
	for rest := s; rest != 0; {
		id, _ := rest.Lowest()
		ids = append(ids, id)
		rest = rest.Without(id)
	}

	return ids
}

// Bits renders the set as a binary string of the given width, client 0 being
// the rightmost digit.
func (s ClientSet) Bits(width int) string {
	var sb strings.Builder
	for i := width - 1; i >= 0; i-- {
		if s.Has(ClientID(i)) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}

	return sb.String()
}

func (s ClientSet) String() string {
	return fmt.Sprint(s.Members())
}

// Direction tells whether a bus transaction reads or writes.
type Direction uint8

// Directions on the bus. The idle bus reads as Write.
const (
	Write Direction = 0
	Read  Direction = 1
)

func (d Direction) String() string {
	if d == Read {
		return "read"
	}

	return "write"
}

// BusSignals is the address/data/direction triple driven onto the shared bus.
type BusSignals struct {
	Address   uint8     `json:"address"`
	Data      uint32    `json:"data"`
	Direction Direction `json:"direction"`
}

// A Client competes for the shared resource. The arbiter polls it once per
// step.
type Client interface {
	// Requesting tells if the client wants the resource in this step.
	Requesting() bool

	// Address is the candidate address the client drives when granted.
	Address() uint8

	// Data is the candidate data the client drives when granted.
	Data() uint32

	// Direction is the candidate direction the client drives when granted.
	Direction() Direction
}
