package arbitration

import "errors"

var (
	// ErrInvalidClientCount means the number of clients cannot be served by
	// the admission queue.
	ErrInvalidClientCount = errors.New("invalid client count")

	// ErrInvalidQueueCapacity means the queue capacity is not a power of two
	// larger than one.
	ErrInvalidQueueCapacity = errors.New("invalid queue capacity")

	// ErrQueueEmpty is returned when dequeuing from an empty admission queue.
	ErrQueueEmpty = errors.New("admission queue is empty")

	// ErrQueueFull is returned when enqueuing into a full admission queue.
	ErrQueueFull = errors.New("admission queue is full")

	// ErrUnknownClient means a client ID is outside the configured range.
	ErrUnknownClient = errors.New("unknown client")

	// ErrInvariantViolated is returned by Arbiter.Validate.
	ErrInvariantViolated = errors.New("arbiter invariant violated")
)
