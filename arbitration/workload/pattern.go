// Package workload provides scripted clients that drive the arbiter with
// predetermined request patterns.
package workload

import (
	"errors"
	"fmt"
	"sync"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// A RequestPattern decides whether a client requests in a given step.
type RequestPattern interface {
	Requesting(step uint64) bool
}

// A Forecaster is a pattern that can find the first step in [from, until) in
// which it requests.
type Forecaster interface {
	NextRequest(from, until uint64) (uint64, bool)
}

// scan finds the next requesting step by asking the pattern step by step.
func scan(p RequestPattern, from, until uint64) (uint64, bool) {
	for step := from; step < until; step++ {
		if p.Requesting(step) {
			return step, true
		}
	}

	return 0, false
}

// PatternFunc adapts a function into a RequestPattern.
type PatternFunc func(step uint64) bool

// Requesting calls f.
func (f PatternFunc) Requesting(step uint64) bool {
	return f(step)
}

// NextRequest scans the steps one by one.
func (f PatternFunc) NextRequest(from, until uint64) (uint64, bool) {
	return scan(f, from, until)
}

// Always requests in every step.
type Always struct{}

// Requesting returns true.
func (Always) Requesting(uint64) bool { return true }

// NextRequest returns from.
func (Always) NextRequest(from, until uint64) (uint64, bool) {
	return from, from < until
}

// Never requests.
type Never struct{}

// Requesting returns false.
func (Never) Requesting(uint64) bool { return false }

// NextRequest never finds a step.
func (Never) NextRequest(uint64, uint64) (uint64, bool) { return 0, false }

// Window requests in steps [From, To).
type Window struct {
	From, To uint64
}

// Requesting tells if step falls in the window.
func (w Window) Requesting(step uint64) bool {
	return step >= w.From && step < w.To
}

// NextRequest returns the first step of the window at or after from.
func (w Window) NextRequest(from, until uint64) (uint64, bool) {
	step := max(from, w.From)

	return step, step < w.To && step < until
}

// ErrBadExpression wraps errors from compiling a request expression.
var ErrBadExpression = errors.New("bad request expression")

// ExprPattern evaluates a Starlark expression over the predeclared integer
// `step`. The expression must yield a bool, for example
// "step < 10 or step % 4 == 0".
type ExprPattern struct {
	expr string
	prog *starlark.Program

	lock     sync.Mutex
	err      error
	failures uint64
}

// NewExprPattern compiles the expression and checks that it yields a bool at
// step 0.
func NewExprPattern(expr string) (*ExprPattern, error) {
	opts := syntax.FileOptions{}
	isPredeclared := func(name string) bool { return name == "step" }

	_, prog, err := starlark.SourceProgramOptions(
		&opts, "request", "rc = "+expr+"\n", isPredeclared)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrBadExpression, expr, err)
	}

	p := &ExprPattern{expr: expr, prog: prog}
	if _, err := p.eval(0); err != nil {
		return nil, err
	}

	return p, nil
}

// Requesting evaluates the expression. A step in which the evaluation fails,
// such as a division by zero, counts as not requesting and is reported by Err.
func (p *ExprPattern) Requesting(step uint64) bool {
	rc, err := p.eval(step)
	if err != nil {
		p.lock.Lock()
		defer p.lock.Unlock()

		p.failures++
		if p.err == nil {
			p.err = fmt.Errorf("step %d: %w", step, err)
		}

		return false
	}

	return rc
}

// NextRequest evaluates the expression step by step. Failures met while
// looking ahead are not recorded; they are recorded when the step is sampled.
func (p *ExprPattern) NextRequest(from, until uint64) (uint64, bool) {
	for step := from; step < until; step++ {
		if rc, err := p.eval(step); err == nil && rc {
			return step, true
		}
	}

	return 0, false
}

// Err returns the first evaluation failure, if any.
func (p *ExprPattern) Err() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.err
}

// Failures returns how many evaluations failed.
func (p *ExprPattern) Failures() uint64 {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.failures
}

func (p *ExprPattern) eval(step uint64) (bool, error) {
	thread := &starlark.Thread{Name: "request"}
	predeclared := starlark.StringDict{
		"step": starlark.MakeUint64(step),
	}

	globals, err := p.prog.Init(thread, predeclared)
	if err != nil {
		return false, fmt.Errorf("%w %q: %v", ErrBadExpression, p.expr, err)
	}

	rc, ok := globals["rc"].(starlark.Bool)
	if !ok {
		return false, fmt.Errorf("%w %q: yields %s, not bool",
			ErrBadExpression, p.expr, globals["rc"].Type())
	}

	return bool(rc), nil
}

// String returns the source expression.
func (p *ExprPattern) String() string {
	return p.expr
}

// ParsePattern turns a scenario request string into a pattern. "always" and
// "never" are keywords; anything else is an expression.
func ParsePattern(s string) (RequestPattern, error) {
	switch s {
	case "always":
		return Always{}, nil
	case "never", "":
		return Never{}, nil
	}

	return NewExprPattern(s)
}
