// Package attribution models what the install-attribution SDK hands the flow
// engine: an installation id and a map of campaign/conversion fields.
//
// The SDK reports asynchronously and at most once per process. Promise turns
// that callback into a single-resolution future, and Waiter races it against
// a timeout so the engine never waits forever.
package attribution

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

// SDK is the boundary to the attribution provider.
type SDK interface {
	// InstallID returns the installation id currently known to the SDK. It
	// may be empty before the SDK has started.
	InstallID() string
	// Conversion blocks until conversion data arrives or the SDK gives up.
	Conversion(ctx context.Context) (map[string]string, error)
}

// Fields is an immutable, key-ordered view of conversion data.
type Fields struct {
	keys   []string
	values map[string]string
}

// NewFields copies m. Values are stringified with fmt's %v, the way the SDK's
// loosely typed payload is usually flattened.
func NewFields[V any](m map[string]V) Fields {
	f := Fields{values: make(map[string]string, len(m))}
	for k, v := range m {
		f.keys = append(f.keys, k)
		f.values[k] = fmt.Sprint(v)
	}
	sort.Strings(f.keys)
	return f
}

// Get returns the value stored under key.
func (f Fields) Get(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Keys returns the field names in sorted order.
func (f Fields) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

func (f Fields) Len() int { return len(f.keys) }

// Source records which trigger produced a Context.
type Source int

const (
	SourceSDK Source = iota
	SourceTimeout
)

func (s Source) String() string {
	if s == SourceTimeout {
		return "timeout"
	}
	return "sdk"
}

// Context is the snapshot fed to the endpoint resolver.
type Context struct {
	InstallID string
	Fields    Fields
	Source    Source
}

// Promise resolves exactly once. Later Resolve calls are ignored.
type Promise struct {
	once  sync.Once
	done  chan struct{}
	value Context
}

// NewPromise returns an unresolved promise.
func NewPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

// Resolve stores c if the promise is still pending and reports whether it won.
func (p *Promise) Resolve(c Context) bool {
	won := false
	p.once.Do(func() {
		p.value = c
		won = true
		close(p.done)
	})
	return won
}

// Done is closed once the promise resolves.
func (p *Promise) Done() <-chan struct{} { return p.done }

// Value returns the resolved context. It must only be called after Done.
func (p *Promise) Value() Context {
	<-p.done
	return p.value
}

// Deliver runs sdk.Conversion and resolves p with the outcome. An SDK error
// resolves with empty fields; the install id is still queried.
func Deliver(ctx context.Context, sdk SDK, p *Promise) error {
	fields, err := sdk.Conversion(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c := Context{InstallID: sdk.InstallID(), Source: SourceSDK}
	if err == nil {
		c.Fields = NewFields(fields)
	}
	p.Resolve(c)
	return err
}

// Waiter races a Promise against a timeout.
type Waiter struct {
	Clock   clock.Clock
	Timeout time.Duration
	// InstallID supplies the id used when the timeout wins.
	InstallID func() string
}

// Await arms the race and returns immediately. fire is called exactly once,
// from a new goroutine, with either the promise's value or a timeout context
// carrying no fields. Nothing fires if ctx ends first.
func (w Waiter) Await(ctx context.Context, p *Promise, fire func(Context)) {
	clk := w.Clock
	if clk == nil {
		clk = clock.New()
	}
	// Armed before returning so a mock clock sees the timer immediately.
	timer := clk.Timer(w.Timeout)

	go func() {
		defer timer.Stop()
		select {
		case <-p.Done():
			fire(p.Value())
		case <-timer.C:
			c := Context{Source: SourceTimeout}
			if w.InstallID != nil {
				c.InstallID = w.InstallID()
			}
			// Consume the promise so a late SDK delivery is ignored.
			if p.Resolve(c) {
				fire(c)
				return
			}
			fire(p.Value())
		case <-ctx.Done():
		}
	}()
}
