// Package arbitration implements a fair, queue-based arbiter that serializes
// access to one shared resource among a small fixed set of clients.
//
// The arbiter advances in discrete steps. In every step it performs at most
// one of two actions, admission first:
//
//   - Admission: the lowest-ID client that requests and is neither queued nor
//     granted joins the tail of the admission queue.
//   - Release: if nothing was admitted and the granted client no longer
//     requests, the grant is cleared.
//
// After that, if the grant is idle and the queue is not empty, the queue head
// is promoted to the grant. The three actions apply in this order, so a
// promotion sees the admission or release of the same step.
//
// Admission and release never run in the same step because both change the
// membership set. Admission wins so that a new request is never dropped.
package arbitration

import (
	"fmt"
	"log"

	"github.com/sarchlab/fairarb/sim/hooking"
)

// HookPosAdmit marks a client joining the admission queue.
var HookPosAdmit = &hooking.HookPos{Name: "Arbiter Admit"}

// HookPosRelease marks the granted client giving up the resource.
var HookPosRelease = &hooking.HookPos{Name: "Arbiter Release"}

// HookPosPromote marks the queue head receiving the grant.
var HookPosPromote = &hooking.HookPos{Name: "Arbiter Promote"}

// Action is the membership-changing action taken in a step.
type Action int

// Actions of a step. Promotion is reported separately since it can accompany
// any of them.
const (
	ActionNone Action = iota
	ActionAdmit
	ActionRelease
)

func (a Action) String() string {
	switch a {
	case ActionAdmit:
		return "admit"
	case ActionRelease:
		return "release"
	default:
		return "none"
	}
}

// StepResult describes what happened in one step.
type StepResult struct {
	Step     uint64
	Requests ClientSet

	// Action and Client tell which client was admitted or released.
	Action Action
	Client ClientID

	// Promoted tells if PromotedClient received the grant in this step.
	Promoted       bool
	PromotedClient ClientID

	// Grant is the grant register after the step.
	Grant Grant
}

// Option configures an Arbiter.
type Option func(*Arbiter)

// WithQueueCapacity overrides the admission queue capacity, which otherwise
// is the smallest power of two above the number of clients.
func WithQueueCapacity(capacity int) Option {
	return func(a *Arbiter) {
		a.queueCapacity = capacity
	}
}

// Arbiter decides, step by step, which client holds the shared resource.
type Arbiter struct {
	hooking.HookableBase

	numClients    int
	queueCapacity int
	allClients    ClientSet

	queue   *AdmissionQueue
	members MembershipSet
	grant   Grant
	step    uint64
}

// NewArbiter creates an arbiter for numClients clients, IDs 0 to
// numClients-1. It starts with an empty queue and no grant.
func NewArbiter(numClients int, opts ...Option) (*Arbiter, error) {
	if numClients < 1 || numClients > MaxClients {
		return nil, fmt.Errorf("%w: %d", ErrInvalidClientCount, numClients)
	}

	a := &Arbiter{
		numClients:    numClients,
		queueCapacity: QueueCapacityFor(numClients),
	}

	for _, opt := range opts {
		opt(a)
	}

	queue, err := NewAdmissionQueue(a.queueCapacity)
	if err != nil {
		return nil, err
	}

	if numClients > queue.Capacity()-1 {
		return nil, fmt.Errorf(
			"%w: %d clients do not fit a queue of capacity %d",
			ErrInvalidClientCount, numClients, queue.Capacity())
	}

	a.queue = queue
	a.allClients = ClientSet(1<<uint(numClients) - 1)

	return a, nil
}

// Step advances the arbiter by one step given the clients requesting now.
func (a *Arbiter) Step(requests ClientSet) StepResult {
	if unknown := requests &^ a.allClients; unknown != 0 {
		log.Panicf("%s: %v", ErrUnknownClient, unknown)
	}

	result := StepResult{
		Step:     a.step,
		Requests: requests,
	}

	if id, ok := a.admit(requests); ok {
		result.Action = ActionAdmit
		result.Client = id
	} else if id, ok := a.release(requests); ok {
		result.Action = ActionRelease
		result.Client = id
	}

	if id, ok := a.promote(); ok {
		result.Promoted = true
		result.PromotedClient = id
	}

	result.Grant = a.grant
	a.step++

	return result
}

func (a *Arbiter) admit(requests ClientSet) (ClientID, bool) {
	id, ok := a.members.NewcomersIn(requests).Lowest()
	if !ok {
		return 0, false
	}

	if err := a.queue.Enqueue(id); err != nil {
		log.Panic(err)
	}

	a.members.Add(id)
	a.invokeHook(HookPosAdmit, id)

	return id, true
}

func (a *Arbiter) release(requests ClientSet) (ClientID, bool) {
	id, ok := a.grant.Client()
	if !ok || requests.Has(id) {
		return 0, false
	}

	a.grant = Idle()
	a.members.Remove(id)
	a.invokeHook(HookPosRelease, id)

	return id, true
}

func (a *Arbiter) promote() (ClientID, bool) {
	if !a.grant.IsIdle() || a.queue.IsEmpty() {
		return 0, false
	}

	id, err := a.queue.Dequeue()
	if err != nil {
		log.Panic(err)
	}

	a.grant = GrantTo(id)
	a.invokeHook(HookPosPromote, id)

	return id, true
}

func (a *Arbiter) invokeHook(pos *hooking.HookPos, id ClientID) {
	if a.NumHooks() == 0 {
		return
	}

	a.InvokeHook(hooking.HookCtx{
		Domain: a,
		Pos:    pos,
		Item:   id,
		Detail: a.step,
	})
}

// NumClients returns the number of clients the arbiter serves.
func (a *Arbiter) NumClients() int {
	return a.numClients
}

// QueueCapacity returns the capacity of the admission queue.
func (a *Arbiter) QueueCapacity() int {
	return a.queue.Capacity()
}

// Grant returns the grant register.
func (a *Arbiter) Grant() Grant {
	return a.grant
}

// Granted returns the grant as a one-hot set.
func (a *Arbiter) Granted() ClientSet {
	return a.grant.OneHot()
}

// Busy tells if any client holds the grant.
func (a *Arbiter) Busy() bool {
	return !a.grant.IsIdle()
}

// Queued lists the waiting clients, head first.
func (a *Arbiter) Queued() []ClientID {
	return a.queue.Snapshot()
}

// Members returns the clients that are queued or granted.
func (a *Arbiter) Members() ClientSet {
	return a.members.Set()
}

// StepCount returns the number of steps taken so far.
func (a *Arbiter) StepCount() uint64 {
	return a.step
}

// Reset brings the arbiter back to its initial state. Hooks stay registered.
func (a *Arbiter) Reset() {
	a.queue.Reset()
	a.members.Clear()
	a.grant = Idle()
	a.step = 0
}

// Validate checks that the membership set equals the queued clients plus the
// grantee and that nobody is queued twice or both queued and granted.
func (a *Arbiter) Validate() error {
	var queued ClientSet

	for _, id := range a.queue.Snapshot() {
		if queued.Has(id) {
			return fmt.Errorf("%w: client %d queued twice",
				ErrInvariantViolated, id)
		}

		if a.grant.IsHeldBy(id) {
			return fmt.Errorf("%w: client %d queued and granted",
				ErrInvariantViolated, id)
		}

		queued = queued.With(id)
	}

	expected := queued | a.grant.OneHot()
	if expected != a.members.Set() {
		return fmt.Errorf("%w: membership %v, expected %v",
			ErrInvariantViolated, a.members.Set(), expected)
	}

	return nil
}
