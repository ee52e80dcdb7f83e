package magicpages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/magicpages/internal/demo"
	"github.com/GoCodeAlone/magicpages/page"
)

// newCore builds an uninitialized core over the demo store.
func newCore(t *testing.T, opts ...Option) (*MagicPages, *page.Pages, *demo.Journal) {
	t.Helper()
	journal := &demo.Journal{}
	store := demo.NewStore(journal)
	mp, err := New(store, opts...)
	require.NoError(t, err)
	return mp, store, journal
}

// initCore builds and initializes a core over the demo store.
func initCore(t *testing.T, opts ...Option) (*MagicPages, *page.Pages, *demo.Journal) {
	t.Helper()
	mp, store, journal := newCore(t, opts...)
	require.NoError(t, mp.Init(context.Background()))
	return mp, store, journal
}

// newPage creates an unsaved page of the named template.
func newPage(t *testing.T, store *page.Pages, template string) page.Page {
	t.Helper()
	tpl := store.Template(template)
	require.NotNil(t, tpl, "template %s", template)
	return store.NewPage(tpl)
}
