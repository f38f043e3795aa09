// Package id generates identifiers for events and trace records.
package id

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator produces unique string identifiers.
type IDGenerator interface {
	Generate() string
}

var (
	generatorMu sync.Mutex
	generator   IDGenerator = &sequentialIDGenerator{}
)

// UseSequentialIDGenerator makes Generate return increasing decimal numbers.
// Runs become reproducible, which is what a serial simulation wants.
func UseSequentialIDGenerator() {
	generatorMu.Lock()
	generator = &sequentialIDGenerator{}
	generatorMu.Unlock()
}

// UseParallelIDGenerator makes Generate return globally unique xids.
func UseParallelIDGenerator() {
	generatorMu.Lock()
	generator = parallelIDGenerator{}
	generatorMu.Unlock()
}

// NewIDGenerator returns a fresh sequential generator.
func NewIDGenerator() IDGenerator {
	return &sequentialIDGenerator{}
}

// Generate returns an ID from the process-wide generator.
func Generate() string {
	generatorMu.Lock()
	g := generator
	generatorMu.Unlock()

	return g.Generate()
}

type sequentialIDGenerator struct {
	nextID uint64
}

func (g *sequentialIDGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.nextID, 1)

	return strconv.FormatUint(idNumber, 10)
}

type parallelIDGenerator struct{}

func (g parallelIDGenerator) Generate() string {
	return xid.New().String()
}
