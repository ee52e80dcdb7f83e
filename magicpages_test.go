package magicpages

import (
	"context"
	"errors"
	"sync"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/magicpages/internal/demo"
	"github.com/GoCodeAlone/magicpages/page"
)

type readyPage struct {
	page.Base
	order *[]string
	fail  error
}

func (p *readyPage) IsMagicPage() bool { return true }

func (p *readyPage) Ready(context.Context) error {
	*p.order = append(*p.order, p.Template().Name)
	return p.fail
}

type initFailPage struct {
	page.Base
}

func (p *initFailPage) IsMagicPage() bool          { return true }
func (p *initFailPage) Init(context.Context) error { return errBoom }

func TestNewRequiresStore(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrUniverseNil)

	var pages *page.Pages
	_, err = New(pages)
	assert.ErrorIs(t, err, ErrUniverseNil)
}

func TestInitDisabled(t *testing.T) {
	for name, toggle := range map[string]Toggle{"false": ToggleOf(false), "zero": ToggleOf(0)} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.UseMagicClasses = toggle
			logger := new(MockLogger)
			logger.On("Info", "Magic pages disabled by configuration", mock.Anything).Once()

			mp, store, journal := newCore(t, WithConfig(cfg), WithLogger(logger))
			require.NoError(t, mp.Init(context.Background()))

			assert.False(t, mp.Enabled())
			assert.Empty(t, mp.Binder().Subscriptions())
			assert.Zero(t, mp.Fields().Count())
			assert.Zero(t, mp.Registry().Probes())
			assert.Empty(t, store.Env().Hooks.Hooks())
			assert.Empty(t, store.Env().Methods.List())
			assert.Empty(t, journal.Entries())
			require.NoError(t, mp.Ready(context.Background()))
			assert.Empty(t, journal.Entries())
			logger.AssertExpectations(t)
		})
	}
}

func TestInitEnabledByOtherValues(t *testing.T) {
	for name, toggle := range map[string]Toggle{"absent": {}, "true": ToggleOf(true), "one": ToggleOf(1), "string": ToggleOf("0")} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.UseMagicClasses = toggle
			mp, _, _ := initCore(t, WithConfig(cfg))
			assert.True(t, mp.Enabled())
			assert.Len(t, mp.Binder().Subscriptions(), 13)
			assert.Equal(t, 5, mp.Fields().Count())
		})
	}
}

func TestInitDiscovery(t *testing.T) {
	mp, store, journal := initCore(t, WithLogger(new(MockLogger).permissive()))

	types := mp.Registry().Types()
	require.Len(t, types, 2)
	assert.Equal(t, demo.TemplateReport, types[0].Template)
	assert.Equal(t, demo.TemplateProject, types[1].Template)
	assert.Equal(t, 2, mp.Registry().Probes())
	assert.Equal(t, []string{"report.init"}, journal.Entries())
	assert.Equal(t, []string{demo.TemplateReport}, mp.Pending())

	watched := mp.Migrations().Watched()
	require.Len(t, watched, 2)
	assert.False(t, watched[0].Migrate)
	assert.True(t, watched[1].Migrate)
	assert.Contains(t, watched[1].Path, "demo.go")

	// 11 dispatchers plus the asset hook
	assert.Len(t, store.Env().Hooks.Hooks(), 12)
}

func TestInitTwice(t *testing.T) {
	mp, _, _ := initCore(t)
	assert.ErrorIs(t, mp.Init(context.Background()), ErrAlreadyInitialized)
	assert.Len(t, mp.Binder().Subscriptions(), 13)
}

func TestInitFailure(t *testing.T) {
	store := page.NewPages(page.NewEnv(), &page.Template{Name: "broken", New: func() page.Page { return &initFailPage{} }})
	mp, err := New(store)
	require.NoError(t, err)

	err = mp.Init(context.Background())
	require.ErrorIs(t, err, ErrInitFailed)
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, mp.Binder().Subscriptions())
}

func TestReadyOrder(t *testing.T) {
	var order []string
	newReady := func() page.Page { return &readyPage{order: &order} }
	store := page.NewPages(page.NewEnv(),
		&page.Template{Name: "first", New: newReady},
		&page.Template{Name: "plain"},
		&page.Template{Name: "second", New: newReady},
	)
	mp, err := New(store)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, mp.Init(ctx))
	assert.Empty(t, order)

	require.NoError(t, mp.Ready(ctx))
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Empty(t, mp.Pending())

	require.NoError(t, mp.Ready(ctx))
	assert.Equal(t, []string{"first", "second"}, order, "queue is drained once")
}

func TestReadyFailure(t *testing.T) {
	var order []string
	store := page.NewPages(page.NewEnv(), &page.Template{Name: "bad", New: func() page.Page {
		return &readyPage{order: &order, fail: errBoom}
	}})
	mp, err := New(store)
	require.NoError(t, err)
	require.NoError(t, mp.Init(context.Background()))

	err = mp.Ready(context.Background())
	assert.ErrorIs(t, err, ErrReadyFailed)
	assert.ErrorIs(t, err, errBoom)
}

func TestReadyBeforeInit(t *testing.T) {
	mp, _, journal := newCore(t)
	require.NoError(t, mp.Ready(context.Background()))
	assert.Empty(t, journal.Entries())
}

func TestReadyRunsMigrationsFirst(t *testing.T) {
	mp, _, journal := initCore(t)
	require.NoError(t, mp.Ready(context.Background()))
	assert.Equal(t, []string{"report.init", "project.migrate", "report.ready"}, journal.Entries())

	require.NoError(t, mp.Ready(context.Background()))
	assert.Equal(t, 1, journal.Count("project.migrate"), "unchanged sources are not migrated again")
}

func TestObserversReceiveLifecycleEvents(t *testing.T) {
	var (
		mu    sync.Mutex
		types []string
	)
	obs := NewFunctionalObserver("recorder", func(_ context.Context, e cloudevents.Event) error {
		mu.Lock()
		defer mu.Unlock()
		types = append(types, e.Type())
		return nil
	})
	failing := NewFunctionalObserver("failing", func(context.Context, cloudevents.Event) error {
		return errors.New("observer failure")
	})

	mp, _, _ := initCore(t, WithObserver(failing), WithObserver(obs), WithLogger(new(MockLogger).permissive()))
	require.NoError(t, mp.Ready(context.Background()))

	assert.Equal(t, []string{
		EventTypeTypeDiscovered, EventTypeTypeInitialized, EventTypeTypeBound,
		EventTypeTypeDiscovered, EventTypeTypeBound,
		EventTypeInitialized,
		EventTypeTypeMigrated,
		EventTypeTypeReady,
		EventTypeReady,
	}, types)

	infos := mp.GetObservers()
	require.Len(t, infos, 2)
	assert.Equal(t, "failing", infos[0].ID)
}

func TestObserverEventTypeFilter(t *testing.T) {
	var got []cloudevents.Event
	obs := NewFunctionalObserver("ready-only", func(_ context.Context, e cloudevents.Event) error {
		got = append(got, e)
		return nil
	})
	mp, _, _ := initCore(t, WithObserver(obs, EventTypeReady))
	require.NoError(t, mp.Ready(context.Background()))

	require.Len(t, got, 1)
	assert.Equal(t, EventSource, got[0].Source())
	assert.Equal(t, cloudevents.VersionV1, got[0].SpecVersion())
	assert.NotEmpty(t, got[0].ID())

	require.NoError(t, mp.UnregisterObserver(obs))
	assert.Empty(t, mp.GetObservers())
}
