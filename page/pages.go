package page

import (
	"context"
	"fmt"
	"sync"

	"github.com/GoCodeAlone/magicpages/hook"
)

// Universe enumerates the known templates and builds zero pages for them.
type Universe interface {
	Templates() []*Template
	NewPage(tpl *Template) Page
}

// SaveOptions travels with every save as the second argument of the save hooks.
type SaveOptions struct {
	// Internal marks a save issued by a save handler itself (for example to
	// store a recomputed name). Lifecycle subscribers skip internal saves so
	// they never re-enter the save they are handling.
	Internal bool
}

// SaveOption configures a save.
type SaveOption func(*SaveOptions)

// Internal marks the save as internal.
func Internal() SaveOption {
	return func(o *SaveOptions) {
		o.Internal = true
	}
}

// Pages is an in-memory page store.
type Pages struct {
	env *Env

	mu        sync.RWMutex
	templates []*Template
	pages     map[int]Page
	nextID    int
}

// NewPages creates a store for the given templates.
func NewPages(env *Env, templates ...*Template) *Pages {
	if env == nil {
		env = NewEnv()
	}
	return &Pages{
		env:       env,
		templates: templates,
		pages:     make(map[int]Page),
	}
}

// Env returns the runtime pages of this store are attached to.
func (ps *Pages) Env() *Env {
	if ps == nil {
		return nil
	}
	return ps.env
}

// AddTemplate registers another template.
func (ps *Pages) AddTemplate(tpl *Template) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.templates = append(ps.templates, tpl)
}

// Templates returns the known templates in registration order.
func (ps *Pages) Templates() []*Template {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	out := make([]*Template, len(ps.templates))
	copy(out, ps.templates)
	return out
}

// Template looks a template up by name.
func (ps *Pages) Template(name string) *Template {
	for _, tpl := range ps.Templates() {
		if tpl.Name == name {
			return tpl
		}
	}
	return nil
}

// NewPage builds an unsaved page of the template's concrete type.
func (ps *Pages) NewPage(tpl *Template) Page {
	var p Page
	if tpl != nil && tpl.New != nil {
		p = tpl.New()
	}
	if p == nil {
		p = &Base{}
	}
	attach(p, tpl, ps.env)
	return p
}

// Get returns a stored page by id.
func (ps *Pages) Get(id int) (Page, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	p, ok := ps.pages[id]
	return p, ok
}

// Count returns the number of stored pages.
func (ps *Pages) Count() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.pages)
}

// Save persists p. Hooks run in this order: Pages::saveReady (before the
// write), Pages::saved, and for pages without identity Pages::added. Every
// save hook receives (page, SaveOptions).
func (ps *Pages) Save(ctx context.Context, p Page, opts ...SaveOption) error {
	if p == nil {
		return ErrPageNil
	}
	if p.base().runtime() != ps.env {
		return fmt.Errorf("save %s: %w", p.Template(), ErrForeignPage)
	}

	var o SaveOptions
	for _, opt := range opts {
		opt(&o)
	}
	args := []any{p, o}

	if err := ps.env.Hooks.Run(ctx, EventSaveReady, &hook.Event{Object: ps, Arguments: args}, nil); err != nil {
		return err
	}

	isNew := p.ID() == 0
	ps.mu.Lock()
	if isNew {
		ps.nextID++
		p.base().setID(ps.nextID)
	}
	ps.pages[p.ID()] = p
	ps.mu.Unlock()

	if err := ps.env.Hooks.Run(ctx, EventSaved, &hook.Event{Object: ps, Arguments: args}, nil); err != nil {
		return err
	}
	if isNew {
		return ps.env.Hooks.Run(ctx, EventAdded, &hook.Event{Object: ps, Arguments: args}, nil)
	}
	return nil
}

// Trash moves a stored page to the trash and runs Pages::trashed.
func (ps *Pages) Trash(ctx context.Context, p Page) error {
	if p == nil {
		return ErrPageNil
	}
	if p.ID() == 0 {
		return ErrPageNotSaved
	}
	return ps.env.Hooks.Run(ctx, EventTrashed, &hook.Event{Object: ps, Arguments: []any{p}}, func(ctx context.Context, e *hook.Event) error {
		b := p.base()
		b.mu.Lock()
		b.trashed = true
		b.mu.Unlock()
		return nil
	})
}
