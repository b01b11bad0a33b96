// Package gate provides a coarse named mutual-exclusion primitive: one
// boolean flag per registered operation name, reject-don't-wait semantics.
package gate

import (
	"errors"
	"sync/atomic"
)

var (
	// ErrBusy is returned when the named operation is already running.
	ErrBusy = errors.New("operation busy")
	// ErrUnknownOperation is returned for names never registered with the
	// gate. Unregistered names are rejected, not treated as available.
	ErrUnknownOperation = errors.New("operation not registered")
)

// Gate holds one busy flag per registered operation name. The set of names is
// fixed at construction; the Gate is constructed once at process start and
// injected into its callers.
type Gate struct {
	flags map[string]*atomic.Bool
}

// New creates a gate with the given operation names registered.
func New(names ...string) *Gate {
	flags := make(map[string]*atomic.Bool, len(names))
	for _, name := range names {
		flags[name] = &atomic.Bool{}
	}
	return &Gate{flags: flags}
}

// Do runs fn under the named flag. Callers racing an in-flight run are
// rejected with ErrBusy rather than queued. The flag is released on every
// exit path, panics included.
func (g *Gate) Do(name string, fn func() error) error {
	flag, ok := g.flags[name]
	if !ok {
		return ErrUnknownOperation
	}
	if !flag.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer flag.Store(false)
	return fn()
}

// TryAcquire takes the named flag without running anything. The release
// function must be called exactly once.
func (g *Gate) TryAcquire(name string) (release func(), err error) {
	flag, ok := g.flags[name]
	if !ok {
		return nil, ErrUnknownOperation
	}
	if !flag.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	return func() { flag.Store(false) }, nil
}
