package arbitration

import "fmt"

// Grant is the grant register: either idle or holding exactly one client.
type Grant struct {
	client ClientID
	valid  bool
}

// Idle returns a grant that holds no client.
func Idle() Grant {
	return Grant{}
}

// GrantTo returns a grant held by the client.
func GrantTo(id ClientID) Grant {
	return Grant{client: id, valid: true}
}

// Client returns the granted client, if any.
func (g Grant) Client() (ClientID, bool) {
	return g.client, g.valid
}

// IsIdle tells if no client holds the grant.
func (g Grant) IsIdle() bool {
	return !g.valid
}

// IsHeldBy tells if the client holds the grant.
func (g Grant) IsHeldBy(id ClientID) bool {
	return g.valid && g.client == id
}

// OneHot returns the grant as a set with at most one member.
func (g Grant) OneHot() ClientSet {
	if !g.valid {
		return 0
	}

	return SetOf(g.client)
}

func (g Grant) String() string {
	if !g.valid {
		return "idle"
	}

	return fmt.Sprintf("client %d", g.client)
}
