package magicpages

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/GoCodeAlone/magicpages/page"
)

// Store is the page universe the core discovers types in. page.Pages
// implements it.
type Store interface {
	page.Universe
	Saver
	Env() *page.Env
}

// Option configures MagicPages.
type Option func(*MagicPages)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(mp *MagicPages) {
		mp.cfg = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(mp *MagicPages) {
		if logger != nil {
			mp.logger = logger
		}
	}
}

// WithRenderer sets the markup renderer applied by field accessors.
func WithRenderer(r Renderer) Option {
	return func(mp *MagicPages) {
		mp.renderer = r
	}
}

// WithAssetPipeline sets the receiver of page type assets.
func WithAssetPipeline(p AssetPipeline) Option {
	return func(mp *MagicPages) {
		mp.pipeline = p
	}
}

// WithLocator replaces the source file locator.
func WithLocator(l Locator) Option {
	return func(mp *MagicPages) {
		mp.locator = l
	}
}

// WithObserver registers an observer before Init runs.
func WithObserver(o Observer, eventTypes ...string) Option {
	return func(mp *MagicPages) {
		mp.pending = append(mp.pending, pendingObserver{observer: o, eventTypes: eventTypes})
	}
}

type pendingObserver struct {
	observer   Observer
	eventTypes []string
}

// MagicPages discovers page types implementing MagicPage and wires their
// capabilities into the page lifecycle.
type MagicPages struct {
	observers

	store    Store
	cfg      Config
	logger   Logger
	renderer Renderer
	pipeline AssetPipeline
	locator  Locator
	pending  []pendingObserver

	registry   *Registry
	binder     *Binder
	fields     *FieldSynthesizer
	paths      *PathCache
	assets     *Assets
	migrations *MigrationWatcher

	mu          sync.Mutex
	initialized bool
	enabled     bool
	readyQueue  []page.Page
}

// New creates the core for store. Nothing is discovered before Init.
func New(store Store, opts ...Option) (*MagicPages, error) {
	if store == nil || store.Env() == nil {
		return nil, ErrUniverseNil
	}
	mp := &MagicPages{
		store:  store,
		cfg:    DefaultConfig(),
		logger: nopLogger{},
	}
	for _, opt := range opts {
		opt(mp)
	}
	mp.observers.logger = mp.logger
	for _, p := range mp.pending {
		if err := mp.RegisterObserver(p.observer, p.eventTypes...); err != nil {
			return nil, err
		}
	}
	mp.pending = nil

	env := store.Env()
	mp.registry = NewRegistry()
	mp.paths = NewPathCache(mp.locator)
	mp.binder = NewBinder(env.Hooks, store, mp.logger)
	mp.fields = NewFieldSynthesizer(env.Methods, mp.renderer, mp.logger)
	mp.assets = NewAssets(mp.cfg, mp.paths, mp.pipeline, mp.logger)
	mp.migrations = NewMigrationWatcher(mp.paths, mp.logger)
	return mp, nil
}

// Init discovers every magic page type of the store. For each type it runs
// Init on the probe instance, queues it for Ready, registers its source file
// for migrations, binds its capabilities and synthesizes field accessors.
// Nothing happens when UseMagicClasses is off. Init runs at most once.
func (mp *MagicPages) Init(ctx context.Context) error {
	mp.mu.Lock()
	if mp.initialized {
		mp.mu.Unlock()
		return ErrAlreadyInitialized
	}
	mp.initialized = true
	mp.mu.Unlock()

	if !mp.cfg.UseMagicClasses.Enabled() {
		mp.logger.Info("Magic pages disabled by configuration", "useMagicClasses", mp.cfg.UseMagicClasses.String())
		mp.emit(ctx, EventTypeDisabled, nil)
		return nil
	}

	mp.mu.Lock()
	mp.enabled = true
	mp.mu.Unlock()

	discovered := 0
	for _, tpl := range mp.store.Templates() {
		p := mp.store.NewPage(tpl)
		if p == nil || !IsMagic(p) {
			continue
		}
		if err := mp.discover(ctx, p); err != nil {
			return err
		}
		discovered++
	}

	if _, err := mp.store.Env().Hooks.AddAfter(page.EventBuildForm, mp.assets.handler(mp.isMagicType)); err != nil {
		return fmt.Errorf("%w: asset hook: %w", ErrBindFailed, err)
	}

	mp.logger.Info("Magic pages initialized", "types", discovered, "subscriptions", len(mp.binder.Subscriptions()), "accessors", mp.fields.Count())
	mp.emit(ctx, EventTypeInitialized, map[string]any{"types": discovered})
	return nil
}

func (mp *MagicPages) discover(ctx context.Context, p page.Page) error {
	tpl := p.Template().String()
	caps := mp.registry.Capabilities(p)
	typeName := reflect.TypeOf(p).String()
	mp.logger.Debug("Magic page type discovered", "type", typeName, "template", tpl, "capabilities", caps.String())
	mp.emit(ctx, EventTypeTypeDiscovered, typeEventData(p, caps))

	if caps.Init {
		if err := p.(Initializer).Init(ctx); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInitFailed, tpl, err)
		}
		mp.emit(ctx, EventTypeTypeInitialized, typeEventData(p, caps))
	}

	if caps.Ready {
		mp.mu.Lock()
		mp.readyQueue = append(mp.readyQueue, p)
		mp.mu.Unlock()
	}

	if err := mp.migrations.Watch(p, caps.Migrate); err != nil {
		mp.logger.Warn("Page type source not watched", "type", typeName, "template", tpl, "error", err)
	}

	if _, err := mp.binder.Bind(p, caps); err != nil {
		return err
	}
	if _, err := mp.fields.Synthesize(p); err != nil {
		return fmt.Errorf("%w: field accessors of %s: %w", ErrBindFailed, tpl, err)
	}
	mp.emit(ctx, EventTypeTypeBound, typeEventData(p, caps))
	return nil
}

// Ready migrates changed types and then runs Ready on every queued type in
// discovery order. The queue is drained once; later calls only migrate.
func (mp *MagicPages) Ready(ctx context.Context) error {
	mp.mu.Lock()
	enabled := mp.enabled
	queue := mp.readyQueue
	mp.readyQueue = nil
	mp.mu.Unlock()

	if !enabled {
		return nil
	}

	n, err := mp.migrations.MigrateChanged(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		mp.emit(ctx, EventTypeTypeMigrated, map[string]any{"count": n})
	}

	for _, p := range queue {
		if err := p.(Readier).Ready(ctx); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrReadyFailed, p.Template(), err)
		}
		mp.emit(ctx, EventTypeTypeReady, typeEventData(p, mp.registry.Capabilities(p)))
	}
	mp.emit(ctx, EventTypeReady, map[string]any{"types": len(queue)})
	return nil
}

// Enabled reports whether Init ran with discovery switched on.
func (mp *MagicPages) Enabled() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.enabled
}

// Pending returns the templates of types still waiting for Ready.
func (mp *MagicPages) Pending() []string {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	out := make([]string, len(mp.readyQueue))
	for i, p := range mp.readyQueue {
		out[i] = p.Template().String()
	}
	return out
}

func (mp *MagicPages) Config() Config                { return mp.cfg }
func (mp *MagicPages) Registry() *Registry           { return mp.registry }
func (mp *MagicPages) Binder() *Binder               { return mp.binder }
func (mp *MagicPages) Fields() *FieldSynthesizer     { return mp.fields }
func (mp *MagicPages) Paths() *PathCache             { return mp.paths }
func (mp *MagicPages) Assets() *Assets               { return mp.assets }
func (mp *MagicPages) Migrations() *MigrationWatcher { return mp.migrations }
func (mp *MagicPages) Store() Store                  { return mp.store }

// isMagicType reports whether p's type was discovered by Init.
func (mp *MagicPages) isMagicType(p page.Page) bool {
	_, ok := mp.registry.Lookup(reflect.TypeOf(p))
	return ok
}

func typeEventData(p page.Page, caps CapabilitySet) map[string]any {
	names := make([]string, 0)
	for _, c := range caps.List() {
		names = append(names, c.String())
	}
	return map[string]any{
		"type":         reflect.TypeOf(p).String(),
		"template":     p.Template().String(),
		"capabilities": names,
	}
}
