// Package page models the content entities the magic page core dispatches on:
// templates with declared fields, pages built from them, an in-memory page
// store and the page editor that assembles edit forms. Every operation that
// other code may react to runs through a hook.Bus.
package page

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/GoCodeAlone/magicpages/hook"
)

// Hookable operation names.
const (
	EventSaveReady         = "Pages::saveReady"
	EventSaved             = "Pages::saved"
	EventAdded             = "Pages::added"
	EventTrashed           = "Pages::trashed"
	EventChanged           = "Page::changed"
	EventBuildForm         = "ProcessPageEdit::buildForm"
	EventBuildFormContent  = "ProcessPageEdit::buildFormContent"
	EventBuildFormSettings = "ProcessPageEdit::buildFormSettings"
	EventProcessInput      = "InputfieldForm::processInput"
)

// Env is the runtime shared by pages of one store.
type Env struct {
	Hooks   *hook.Bus
	Methods *hook.Methods
}

// NewEnv creates an Env with an empty bus and method table.
func NewEnv() *Env {
	return &Env{Hooks: hook.NewBus(), Methods: hook.NewMethods()}
}

// Field is a declared template field.
type Field struct {
	Name  string
	Label string

	// Format turns the stored value into its output form. Nil means the
	// stored value is also the formatted value.
	Format func(v any) any
}

// Template describes one page type.
type Template struct {
	Name   string
	Fields []*Field

	// New constructs a zero page of the template's concrete type. Nil pages
	// are plain *Base values.
	New func() Page
}

// Field returns the declared field with the given name.
func (t *Template) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (t *Template) String() string {
	if t == nil {
		return ""
	}
	return t.Name
}

// Page is implemented by every content entity. Concrete page types embed Base.
type Page interface {
	ID() int
	Name() string
	SetName(name string)
	Template() *Template
	Trashed() bool

	// Get returns built-in properties (id, name, template) and formatted field values.
	Get(key string) any
	GetFormatted(field string) any
	GetUnformatted(field string) any
	Set(ctx context.Context, field string, value any) error

	// Edit returns an editable representation of the field inside an editing
	// context and the formatted value otherwise.
	Edit(field string) any

	// Call invokes a hook method registered for the page's concrete type.
	Call(ctx context.Context, method string, args ...any) (any, error)

	base() *Base
}

// Editable wraps a field value rendered inside an editing context.
type Editable struct {
	Page  Page
	Field string
	Value any
}

func (e Editable) String() string {
	return fmt.Sprintf(`<edit page="%d" field="%s">%v</edit>`, e.Page.ID(), e.Field, e.Value)
}

// Base carries the state shared by all page types.
type Base struct {
	mu       sync.RWMutex
	self     Page
	env      *Env
	id       int
	name     string
	template *Template
	data     map[string]any
	trashed  bool
	tracking bool
	editing  bool
}

func (b *Base) base() *Base { return b }

// attach binds a page to its template and runtime and turns on change tracking.
func attach(p Page, tpl *Template, env *Env) {
	b := p.base()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.self = p
	b.template = tpl
	b.env = env
	if b.data == nil {
		b.data = make(map[string]any)
	}
	b.tracking = true
}

// ID returns the persisted identity, zero before the first save.
func (b *Base) ID() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.id
}

func (b *Base) runtime() *Env {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.env
}

func (b *Base) setID(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.id = id
}

func (b *Base) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.name
}

func (b *Base) SetName(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.name = name
}

func (b *Base) Template() *Template {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.template
}

func (b *Base) Trashed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.trashed
}

// SetEditing switches the page in or out of an editing context.
func (b *Base) SetEditing(editing bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.editing = editing
}

func (b *Base) Get(key string) any {
	switch key {
	case "id":
		return b.ID()
	case "name":
		return b.Name()
	case "template":
		return b.Template().String()
	}
	return b.GetFormatted(key)
}

func (b *Base) GetFormatted(field string) any {
	v := b.GetUnformatted(field)
	if tpl := b.Template(); tpl != nil {
		if f := tpl.Field(field); f != nil && f.Format != nil {
			return f.Format(v)
		}
	}
	return v
}

func (b *Base) GetUnformatted(field string) any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data[field]
}

// Set stores a field value. When change tracking is on and the value differs,
// the Page::changed hook runs with (field, old, new).
func (b *Base) Set(ctx context.Context, field string, value any) error {
	b.mu.Lock()
	if b.data == nil {
		b.data = make(map[string]any)
	}
	old, existed := b.data[field]
	b.data[field] = value
	notify := b.tracking && b.env != nil && (!existed || !reflect.DeepEqual(old, value))
	self, env := b.self, b.env
	b.mu.Unlock()

	if !notify {
		return nil
	}
	return env.Hooks.Run(ctx, EventChanged, &hook.Event{
		Object:    self,
		Arguments: []any{field, old, value},
	}, nil)
}

func (b *Base) Edit(field string) any {
	b.mu.RLock()
	editing, self := b.editing, b.self
	b.mu.RUnlock()

	v := b.GetFormatted(field)
	if editing && self != nil {
		return Editable{Page: self, Field: field, Value: v}
	}
	return v
}

func (b *Base) Call(ctx context.Context, method string, args ...any) (any, error) {
	b.mu.RLock()
	self, env := b.self, b.env
	b.mu.RUnlock()
	if env == nil || self == nil {
		return nil, ErrPageDetached
	}
	return env.Methods.Call(ctx, self, method, args...)
}
