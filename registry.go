package magicpages

import (
	"reflect"
	"sync"

	"github.com/GoCodeAlone/magicpages/page"
)

// TypeInfo describes a discovered magic page type.
type TypeInfo struct {
	Type         reflect.Type  `json:"-"`
	TypeName     string        `json:"type"`
	Template     string        `json:"template"`
	Capabilities CapabilitySet `json:"capabilities"`
}

// Registry caches the capability set of every page type it has seen. The set
// of a type is probed once; later lookups for any instance of the same type
// are served from the cache.
type Registry struct {
	mu     sync.RWMutex
	types  map[reflect.Type]*TypeInfo
	order  []reflect.Type
	probes int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[reflect.Type]*TypeInfo)}
}

// Capabilities returns the cached capability set of p's concrete type,
// probing it on first use.
func (r *Registry) Capabilities(p page.Page) CapabilitySet {
	typ := reflect.TypeOf(p)

	r.mu.RLock()
	info, ok := r.types[typ]
	r.mu.RUnlock()
	if ok {
		return info.Capabilities
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.types[typ]; ok {
		return info.Capabilities
	}
	r.probes++
	info = &TypeInfo{
		Type:         typ,
		TypeName:     typ.String(),
		Template:     p.Template().String(),
		Capabilities: Probe(p),
	}
	r.types[typ] = info
	r.order = append(r.order, typ)
	return info.Capabilities
}

// Lookup returns the info of a type that has been probed.
func (r *Registry) Lookup(typ reflect.Type) (TypeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.types[typ]
	if !ok {
		return TypeInfo{}, false
	}
	return *info, true
}

// Types returns every probed type in discovery order.
func (r *Registry) Types() []TypeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TypeInfo, 0, len(r.order))
	for _, typ := range r.order {
		out = append(out, *r.types[typ])
	}
	return out
}

// Probes returns how many times a type was actually probed.
func (r *Registry) Probes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.probes
}
