package arbitration

import (
	"fmt"
)

// QueueCapacityFor returns the smallest power of two that can queue
// numClients clients while keeping one slot free.
func QueueCapacityFor(numClients int) int {
	capacity := 2
	for capacity < numClients+1 {
		capacity <<= 1
	}

	return capacity
}

// AdmissionQueue is a fixed-capacity ring of client IDs waiting for the
// grant. One slot always stays unused so that head == tail means empty.
type AdmissionQueue struct {
	slots []ClientID
	mask  int
	head  int
	tail  int
}

// NewAdmissionQueue creates a queue. The capacity must be a power of two no
// smaller than 2.
func NewAdmissionQueue(capacity int) (*AdmissionQueue, error) {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQueueCapacity, capacity)
	}

	q := &AdmissionQueue{
		slots: make([]ClientID, capacity),
		mask:  capacity - 1,
	}

	return q, nil
}

// Capacity returns the number of slots, including the one kept free.
func (q *AdmissionQueue) Capacity() int {
	return len(q.slots)
}

// Len returns the number of queued clients.
func (q *AdmissionQueue) Len() int {
	return (q.tail - q.head) & q.mask
}

// IsEmpty tells if no client is waiting.
func (q *AdmissionQueue) IsEmpty() bool {
	return q.head == q.tail
}

// IsFull tells if another Enqueue would fail.
func (q *AdmissionQueue) IsFull() bool {
	return (q.tail+1)&q.mask == q.head
}

// Enqueue appends a client at the tail.
func (q *AdmissionQueue) Enqueue(id ClientID) error {
	if q.IsFull() {
		return fmt.Errorf("%w: cannot enqueue client %d", ErrQueueFull, id)
	}

	q.slots[q.tail] = id
	q.tail = (q.tail + 1) & q.mask

	return nil
}

// Dequeue removes and returns the client at the head.
func (q *AdmissionQueue) Dequeue() (ClientID, error) {
	if q.IsEmpty() {
		return 0, ErrQueueEmpty
	}

	id := q.slots[q.head]
	q.head = (q.head + 1) & q.mask

	return id, nil
}

// Peek returns the client at the head without removing it.
func (q *AdmissionQueue) Peek() (ClientID, bool) {
	if q.IsEmpty() {
		return 0, false
	}

	return q.slots[q.head], true
}

// Snapshot lists the queued clients from head to tail.
func (q *AdmissionQueue) Snapshot() []ClientID {
	ids := make([]ClientID, 0, q.Len())
	for i := q.head; i != q.tail; i = (i + 1) & q.mask {
		ids = append(ids, q.slots[i])
	}

	return ids
}

// Reset empties the queue.
func (q *AdmissionQueue) Reset() {
	q.head = 0
	q.tail = 0
}
