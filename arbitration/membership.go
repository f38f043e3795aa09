package arbitration

// MembershipSet marks the clients that are queued or hold the grant. It lets
// the arbiter answer "already admitted?" without scanning the queue.
type MembershipSet struct {
	set ClientSet
}

// Contains tells if the client is queued or granted.
func (m *MembershipSet) Contains(id ClientID) bool {
	return m.set.Has(id)
}

// Add marks the client as admitted.
func (m *MembershipSet) Add(id ClientID) {
	m.set = m.set.With(id)
}

// Remove clears the client's mark.
func (m *MembershipSet) Remove(id ClientID) {
	m.set = m.set.Without(id)
}

// Set returns all the marked clients.
func (m *MembershipSet) Set() ClientSet {
	return m.set
}

// NewcomersIn returns the clients in requests that are not yet admitted.
func (m *MembershipSet) NewcomersIn(requests ClientSet) ClientSet {
	return requests &^ m.set
}

// Clear removes every mark.
func (m *MembershipSet) Clear() {
	m.set = 0
}
