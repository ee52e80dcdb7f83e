package hook

import (
	"cmp"
	"context"
	"math"
	"reflect"
	"slices"
	"sync"
)

// LowestPriority runs before every other method handler, so any other handler
// for the same method overrides its return value.
const LowestPriority = math.MinInt

// MethodOption configures a method handler registration.
type MethodOption func(*method)

// WithMethodPriority sets the method handler priority. Handlers run in
// ascending priority and the last one to run decides the return value.
func WithMethodPriority(priority int) MethodOption {
	return func(m *method) {
		m.priority = priority
	}
}

// WithOwner tags a registration. A later registration of the same method by
// the same owner at the same priority replaces the earlier one.
func WithOwner(owner string) MethodOption {
	return func(m *method) {
		m.owner = owner
	}
}

type method struct {
	priority int
	seq      int
	owner    string
	handler  Handler
}

// MethodInfo describes a method handler for introspection.
type MethodInfo struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	Owner    string `json:"owner,omitempty"`
}

// Methods holds hook methods: callable members added to a concrete type at
// runtime, keyed by exact type and method name.
type Methods struct {
	mu     sync.RWMutex
	byType map[reflect.Type]map[string][]*method
	seq    int
}

// NewMethods creates an empty method table.
func NewMethods() *Methods {
	return &Methods{byType: make(map[reflect.Type]map[string][]*method)}
}

// Add registers a handler for name on typ.
func (m *Methods) Add(typ reflect.Type, name string, h Handler, opts ...MethodOption) error {
	switch {
	case typ == nil:
		return ErrMethodTypeNotSet
	case name == "":
		return ErrMethodNameEmpty
	case h == nil:
		return ErrNilHandler
	}

	entry := &method{priority: DefaultPriority, handler: h}
	for _, opt := range opts {
		opt(entry)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	entry.seq = m.seq

	names, ok := m.byType[typ]
	if !ok {
		names = make(map[string][]*method)
		m.byType[typ] = names
	}
	list := names[name]
	if entry.owner != "" {
		list = slices.DeleteFunc(list, func(x *method) bool {
			return x.owner == entry.owner && x.priority == entry.priority
		})
	}
	names[name] = append(list, entry)
	return nil
}

// Has reports whether any handler exists for name on typ.
func (m *Methods) Has(typ reflect.Type, name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byType[typ][name]) > 0
}

// Call invokes every handler of name registered for the exact type of obj and
// returns the final return value.
func (m *Methods) Call(ctx context.Context, obj any, name string, args ...any) (any, error) {
	m.mu.RLock()
	list := slices.Clone(m.byType[reflect.TypeOf(obj)][name])
	m.mu.RUnlock()

	if len(list) == 0 {
		return nil, ErrMethodNotFound
	}
	slices.SortFunc(list, func(x, y *method) int {
		return cmp.Or(cmp.Compare(x.priority, y.priority), cmp.Compare(x.seq, y.seq))
	})

	e := &Event{Name: name, Object: obj, Arguments: args}
	for _, h := range list {
		if err := h.handler(ctx, e); err != nil {
			return nil, err
		}
	}
	return e.Return, nil
}

// List returns the registered method handlers sorted by type and name.
func (m *Methods) List() []MethodInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var infos []MethodInfo
	for typ, names := range m.byType {
		for name, list := range names {
			for _, h := range list {
				infos = append(infos, MethodInfo{
					Type:     typ.String(),
					Name:     name,
					Priority: h.priority,
					Owner:    h.owner,
				})
			}
		}
	}
	slices.SortStableFunc(infos, func(a, b MethodInfo) int {
		return cmp.Or(cmp.Compare(a.Type, b.Type), cmp.Compare(a.Name, b.Name), cmp.Compare(a.Priority, b.Priority))
	})
	return infos
}
