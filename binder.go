package magicpages

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/GoCodeAlone/magicpages/hook"
	"github.com/GoCodeAlone/magicpages/page"
)

// Hook specs the binder dispatches on. A spec is a page event name with an
// optional selector on the event's first argument.
const (
	HookCreate   = page.EventSaveReady + "(id=0)"
	HookPageName = page.EventSaved + "(id>0)"
)

const nameFieldNotes = "Page name will be set automatically on save."

// Saver persists pages. The binder uses it to store recomputed page names.
type Saver interface {
	Save(ctx context.Context, p page.Page, opts ...page.SaveOption) error
}

// Subscription binds one capability of one page type to one hook.
type Subscription struct {
	Hook           string       `json:"hook"`
	Type           reflect.Type `json:"-"`
	TypeName       string       `json:"type"`
	Capability     Capability   `json:"-"`
	CapabilityName string       `json:"capability"`

	invoke invoker
}

type invoker func(b *Binder, ctx context.Context, e *hook.Event, p page.Page) error

type binding struct {
	hook       string
	capability Capability
	invoke     invoker
}

// bindings maps capabilities to hooks. setPageName binds twice: once to
// recompute the name after save and once to lock the name input.
var bindings = []binding{
	{page.EventSaved, CapOnSaved, (*Binder).onSaved},
	{page.EventSaveReady, CapOnSaveReady, (*Binder).onSaveReady},
	{HookCreate, CapOnCreate, (*Binder).onCreate},
	{page.EventAdded, CapOnAdded, (*Binder).onAdded},
	{page.EventTrashed, CapOnTrashed, (*Binder).onTrashed},
	{page.EventBuildForm, CapEditForm, (*Binder).editForm},
	{page.EventBuildFormContent, CapEditFormContent, (*Binder).editFormContent},
	{page.EventBuildFormSettings, CapEditFormSettings, (*Binder).editFormSettings},
	{page.EventProcessInput, CapOnProcessInput, (*Binder).onProcessInput},
	{page.EventChanged, CapOnChanged, (*Binder).onChanged},
	{HookPageName, CapSetPageName, (*Binder).applyPageName},
	{page.EventBuildForm, CapSetPageName, (*Binder).lockNameField},
}

type bindingKey struct {
	hook       string
	typ        reflect.Type
	capability Capability
}

// Binder installs one dispatcher per hook spec on the bus and routes each
// firing to the subscriptions of the subject page's exact type.
type Binder struct {
	hooks  *hook.Bus
	saver  Saver
	logger Logger

	mu        sync.RWMutex
	installed map[string]int
	table     map[string]map[reflect.Type][]*Subscription
	bound     map[bindingKey]*Subscription
	order     []*Subscription
}

// NewBinder creates a binder on hooks. saver stores pages renamed by PageNamer.
func NewBinder(hooks *hook.Bus, saver Saver, logger Logger) *Binder {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Binder{
		hooks:     hooks,
		saver:     saver,
		logger:    logger,
		installed: make(map[string]int),
		table:     make(map[string]map[reflect.Type][]*Subscription),
		bound:     make(map[bindingKey]*Subscription),
	}
}

// Bind subscribes every capability in caps for p's concrete type. A (hook,
// type, capability) triple is subscribed at most once; repeated calls are
// no-ops. It returns the number of new subscriptions.
func (b *Binder) Bind(p page.Page, caps CapabilitySet) (int, error) {
	typ := reflect.TypeOf(p)
	added := 0
	for _, bd := range bindings {
		if !caps.Has(bd.capability) {
			continue
		}
		key := bindingKey{hook: bd.hook, typ: typ, capability: bd.capability}

		b.mu.RLock()
		_, dup := b.bound[key]
		b.mu.RUnlock()
		if dup {
			continue
		}

		if err := b.install(bd.hook); err != nil {
			return added, fmt.Errorf("%w: %s for %s: %w", ErrBindFailed, bd.capability, typ, err)
		}

		sub := &Subscription{
			Hook:           bd.hook,
			Type:           typ,
			TypeName:       typ.String(),
			Capability:     bd.capability,
			CapabilityName: bd.capability.String(),
			invoke:         bd.invoke,
		}
		b.mu.Lock()
		byType, ok := b.table[bd.hook]
		if !ok {
			byType = make(map[reflect.Type][]*Subscription)
			b.table[bd.hook] = byType
		}
		byType[typ] = append(byType[typ], sub)
		b.bound[key] = sub
		b.order = append(b.order, sub)
		b.mu.Unlock()

		b.logger.Debug("Capability bound", "type", sub.TypeName, "capability", sub.CapabilityName, "hook", sub.Hook)
		added++
	}
	return added, nil
}

// Subscriptions returns every subscription in installation order.
func (b *Binder) Subscriptions() []Subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Subscription, len(b.order))
	for i, s := range b.order {
		out[i] = *s
	}
	return out
}

// Lookup returns the subscriptions of one hook spec for one type.
func (b *Binder) Lookup(spec string, typ reflect.Type) []Subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	subs := b.table[spec][typ]
	out := make([]Subscription, len(subs))
	for i, s := range subs {
		out[i] = *s
	}
	return out
}

// Dispatchers returns the number of dispatchers installed on the bus.
func (b *Binder) Dispatchers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.installed)
}

// install adds the dispatcher for spec to the bus unless already present.
func (b *Binder) install(spec string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.installed[spec]; ok {
		return nil
	}
	id, err := b.hooks.AddAfter(spec, b.dispatcher(spec))
	if err != nil {
		return err
	}
	b.installed[spec] = id
	return nil
}

func (b *Binder) dispatcher(spec string) hook.Handler {
	return func(ctx context.Context, e *hook.Event) error {
		p, ok := subject(e)
		if !ok {
			return nil
		}

		b.mu.RLock()
		subs := slices.Clone(b.table[spec][reflect.TypeOf(p)])
		b.mu.RUnlock()

		var errs []error
		for _, s := range subs {
			if err := s.invoke(b, ctx, e, p); err != nil {
				errs = append(errs, fmt.Errorf("%s on %s: %w", s.CapabilityName, s.TypeName, err))
			}
		}
		return errors.Join(errs...)
	}
}

type pageEditor interface {
	Page() page.Page
}

// subject resolves the page an event concerns. Internal saves and form events
// without a resolvable page yield no subject.
func subject(e *hook.Event) (page.Page, bool) {
	var p page.Page
	switch e.Name {
	case page.EventSaveReady, page.EventSaved, page.EventAdded:
		if o, ok := e.Argument(1).(page.SaveOptions); ok && o.Internal {
			return nil, false
		}
		p, _ = e.Argument(0).(page.Page)
	case page.EventTrashed:
		p, _ = e.Argument(0).(page.Page)
	case page.EventChanged:
		p, _ = e.Object.(page.Page)
	case page.EventBuildForm, page.EventBuildFormContent, page.EventBuildFormSettings:
		if ed, ok := e.Process.(pageEditor); ok {
			p = ed.Page()
		} else if ed, ok := e.Object.(pageEditor); ok {
			p = ed.Page()
		}
	case page.EventProcessInput:
		if ed, ok := e.Process.(*page.Editor); ok {
			p = ed.Page()
		}
	}
	return p, p != nil
}

func (b *Binder) onSaved(ctx context.Context, _ *hook.Event, p page.Page) error {
	return p.(SavedHandler).OnSaved(ctx)
}

func (b *Binder) onSaveReady(ctx context.Context, _ *hook.Event, p page.Page) error {
	return p.(SaveReadyHandler).OnSaveReady(ctx)
}

func (b *Binder) onCreate(ctx context.Context, _ *hook.Event, p page.Page) error {
	if p.ID() != 0 {
		return nil
	}
	return p.(CreateHandler).OnCreate(ctx)
}

func (b *Binder) onAdded(ctx context.Context, _ *hook.Event, p page.Page) error {
	return p.(AddedHandler).OnAdded(ctx)
}

func (b *Binder) onTrashed(ctx context.Context, _ *hook.Event, p page.Page) error {
	return p.(TrashedHandler).OnTrashed(ctx)
}

func (b *Binder) editForm(ctx context.Context, e *hook.Event, p page.Page) error {
	form, ok := e.Return.(*page.Form)
	if !ok {
		return nil
	}
	return p.(FormEditor).EditForm(ctx, form)
}

func (b *Binder) editFormContent(ctx context.Context, e *hook.Event, p page.Page) error {
	form, ok := e.Return.(*page.Form)
	if !ok {
		return nil
	}
	return p.(ContentFormEditor).EditFormContent(ctx, form)
}

func (b *Binder) editFormSettings(ctx context.Context, e *hook.Event, p page.Page) error {
	form, ok := e.Return.(*page.Form)
	if !ok {
		return nil
	}
	return p.(SettingsFormEditor).EditFormSettings(ctx, form)
}

func (b *Binder) onProcessInput(ctx context.Context, e *hook.Event, p page.Page) error {
	input, _ := e.Argument(0).(page.Input)
	form, _ := e.Return.(*page.Form)
	return p.(InputProcessor).OnProcessInput(ctx, input, form)
}

func (b *Binder) onChanged(ctx context.Context, e *hook.Event, p page.Page) error {
	field, _ := e.Argument(0).(string)
	return p.(ChangeHandler).OnChanged(ctx, field, e.Argument(1), e.Argument(2))
}

// applyPageName stores the sanitized PageNamer result. The follow-up save is
// internal, so no save subscription sees it.
func (b *Binder) applyPageName(ctx context.Context, _ *hook.Event, p page.Page) error {
	name := Slugify(p.(PageNamer).SetPageName())
	if name == "" {
		b.logger.Warn("Computed page name is empty, keeping current name", "type", reflect.TypeOf(p).String(), "id", p.ID())
		return nil
	}
	if name == p.Name() {
		return nil
	}
	p.SetName(name)
	if b.saver == nil {
		return nil
	}
	return b.saver.Save(ctx, p, page.Internal())
}

// lockNameField disables the name input of pages whose name is computed.
func (b *Binder) lockNameField(_ context.Context, e *hook.Event, _ page.Page) error {
	form, ok := e.Return.(*page.Form)
	if !ok {
		return nil
	}
	f := form.Get(page.NameField)
	if f == nil {
		return nil
	}
	f.Disabled = true
	f.PrependMarkup = fmt.Sprintf("<style>#wrap_%s input[type=text] { display: none; }</style>", f.ID)
	f.Notes = nameFieldNotes
	return nil
}
