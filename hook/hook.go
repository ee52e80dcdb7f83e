// Package hook provides the in-process lifecycle bus that page operations run
// through. Handlers attach before or after a named operation such as
// "Pages::saved", ordered by priority, and may carry a selector that filters
// on the operation's first argument, e.g. "Pages::saved(id>0)".
package hook

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// DefaultPriority is used when a handler is registered without WithPriority.
const DefaultPriority = 100

// When selects whether a handler runs before or after the hooked operation.
type When int

const (
	Before When = iota
	After
)

func (w When) String() string {
	if w == Before {
		return "before"
	}
	return "after"
}

// Event is handed to every handler of a hooked operation.
type Event struct {
	// Name is the operation name without selector, e.g. "Pages::saved".
	Name string

	// Object is the value the operation was invoked on.
	Object any

	// Process is the controlling process, if any (for example a page editor).
	Process any

	// Arguments are the positional arguments of the operation.
	Arguments []any

	// Return holds the operation result. After handlers may replace it.
	Return any
}

// Argument returns the positional argument i or nil when out of range.
func (e *Event) Argument(i int) any {
	if i < 0 || i >= len(e.Arguments) {
		return nil
	}
	return e.Arguments[i]
}

// Handler is a hook callback.
type Handler func(ctx context.Context, e *Event) error

// Info describes a registered handler for introspection.
type Info struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	When     string `json:"when"`
	Priority int    `json:"priority"`
	Selector string `json:"selector,omitempty"`
}

// Option configures a handler registration.
type Option func(*registration)

// WithPriority sets the handler priority. Lower priorities run first.
func WithPriority(priority int) Option {
	return func(r *registration) {
		r.priority = priority
	}
}

type registration struct {
	id       int
	name     string
	when     When
	priority int
	selector Selector
	raw      string
	handler  Handler
}

// Bus stores hook registrations and runs hooked operations.
type Bus struct {
	mu     sync.RWMutex
	hooks  map[string][]*registration
	nextID int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{hooks: make(map[string][]*registration)}
}

// AddBefore registers a handler that runs before the named operation.
func (b *Bus) AddBefore(spec string, h Handler, opts ...Option) (int, error) {
	return b.add(Before, spec, h, opts...)
}

// AddAfter registers a handler that runs after the named operation.
func (b *Bus) AddAfter(spec string, h Handler, opts ...Option) (int, error) {
	return b.add(After, spec, h, opts...)
}

func (b *Bus) add(when When, spec string, h Handler, opts ...Option) (int, error) {
	if h == nil {
		return 0, ErrNilHandler
	}
	name, raw, err := splitSpec(spec)
	if err != nil {
		return 0, err
	}
	sel, err := ParseSelector(raw)
	if err != nil {
		return 0, fmt.Errorf("hook %q: %w", spec, err)
	}

	r := &registration{
		name:     name,
		when:     when,
		priority: DefaultPriority,
		selector: sel,
		raw:      raw,
		handler:  h,
	}
	for _, opt := range opts {
		opt(r)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	r.id = b.nextID
	b.hooks[name] = append(b.hooks[name], r)
	return r.id, nil
}

// Remove unregisters a handler by id. It reports whether a handler was removed.
func (b *Bus) Remove(id int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for name, regs := range b.hooks {
		for i, r := range regs {
			if r.id == id {
				b.hooks[name] = slices.Delete(regs, i, i+1)
				return true
			}
		}
	}
	return false
}

// Run executes a hooked operation: matching before handlers, fn (when not nil)
// and matching after handlers, each group in ascending priority order. A
// failing before handler or fn aborts the operation. After handlers all run and
// their errors are joined.
func (b *Bus) Run(ctx context.Context, name string, e *Event, fn func(ctx context.Context, e *Event) error) error {
	e.Name = name
	before, after := b.snapshot(name)

	for _, r := range before {
		if !r.selector.Matches(e.Argument(0)) {
			continue
		}
		if err := r.handler(ctx, e); err != nil {
			return err
		}
	}

	if fn != nil {
		if err := fn(ctx, e); err != nil {
			return err
		}
	}

	var errs []error
	for _, r := range after {
		if !r.selector.Matches(e.Argument(0)) {
			continue
		}
		if err := r.handler(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Hooks lists every registration, ordered by name, phase and priority.
func (b *Bus) Hooks() []Info {
	b.mu.RLock()
	names := make([]string, 0, len(b.hooks))
	for name := range b.hooks {
		names = append(names, name)
	}
	b.mu.RUnlock()
	slices.Sort(names)

	var infos []Info
	for _, name := range names {
		before, after := b.snapshot(name)
		for _, r := range append(before, after...) {
			infos = append(infos, Info{
				ID:       r.id,
				Name:     r.name,
				When:     r.when.String(),
				Priority: r.priority,
				Selector: r.raw,
			})
		}
	}
	return infos
}

// Count returns the number of handlers registered for name.
func (b *Bus) Count(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.hooks[name])
}

// snapshot copies the handlers of name so they run without the lock held.
func (b *Bus) snapshot(name string) (before, after []*registration) {
	b.mu.RLock()
	regs := slices.Clone(b.hooks[name])
	b.mu.RUnlock()

	slices.SortStableFunc(regs, func(x, y *registration) int {
		return cmp.Compare(x.priority, y.priority)
	})
	for _, r := range regs {
		if r.when == Before {
			before = append(before, r)
		} else {
			after = append(after, r)
		}
	}
	return before, after
}

// splitSpec splits "Pages::saved(id>0)" into its name and selector parts.
func splitSpec(spec string) (name, selector string, err error) {
	spec = strings.TrimSpace(spec)
	open := strings.IndexByte(spec, '(')
	if open < 0 {
		name = spec
	} else {
		if !strings.HasSuffix(spec, ")") {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidSpec, spec)
		}
		name = spec[:open]
		selector = spec[open+1 : len(spec)-1]
	}
	if name == "" || !strings.Contains(name, "::") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSpec, spec)
	}
	return name, selector, nil
}
