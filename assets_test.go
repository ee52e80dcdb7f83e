package magicpages

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/magicpages/internal/demo"
	"github.com/GoCodeAlone/magicpages/page"
)

type recordingPipeline struct {
	styles  []string
	scripts []string
}

func (r *recordingPipeline) AddStyles(path string)  { r.styles = append(r.styles, path) }
func (r *recordingPipeline) AddScripts(path string) { r.scripts = append(r.scripts, path) }

type assetFixture struct {
	classes  string
	assets   string
	pipeline *recordingPipeline
	assetsH  *Assets
	page     page.Page
}

func newAssetFixture(t *testing.T, sourceDir func(classes string) string) *assetFixture {
	t.Helper()
	root := t.TempDir()
	f := &assetFixture{
		classes:  filepath.Join(root, "site", "classes"),
		assets:   filepath.Join(root, "site", "assets"),
		pipeline: &recordingPipeline{},
	}
	require.NoError(t, os.MkdirAll(f.classes, 0o755))
	dir := sourceDir(f.classes)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	cfg := Config{UseMagicClasses: On, ClassesPath: f.classes, AssetsPath: f.assets}
	paths := NewPathCache(LocatorFunc(func(page.Page) (string, error) {
		return filepath.Join(dir, "ReportPage.go"), nil
	}))
	f.assetsH = NewAssets(cfg, paths, f.pipeline, nil)
	f.page = newPage(t, demo.NewStore(nil), demo.TemplateReport)
	return f
}

func TestAddPageAssetsCopiesRestrictedSources(t *testing.T) {
	ctx := context.Background()
	f := newAssetFixture(t, func(classes string) string { return classes })
	css := filepath.Join(f.classes, "ReportPage.css")
	require.NoError(t, os.WriteFile(css, []byte("body{}"), 0o644))

	require.NoError(t, f.assetsH.AddPageAssets(ctx, f.page))

	cached := filepath.Join(f.assets, "MagicPages", "assets", "ReportPage.css")
	data, err := os.ReadFile(cached)
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(data))
	assert.Equal(t, []string{cached}, f.pipeline.styles)
	assert.Empty(t, f.pipeline.scripts)

	// newer source refreshes the copy
	require.NoError(t, os.WriteFile(css, []byte("body{color:red}"), 0o644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(css, future, future))
	require.NoError(t, f.assetsH.AddPageAssets(ctx, f.page))
	data, err = os.ReadFile(cached)
	require.NoError(t, err)
	assert.Equal(t, "body{color:red}", string(data))

	// removed source removes the copy
	require.NoError(t, os.Remove(css))
	require.NoError(t, f.assetsH.AddPageAssets(ctx, f.page))
	_, err = os.Stat(cached)
	assert.True(t, os.IsNotExist(err))
	assert.Len(t, f.pipeline.styles, 2)
}

func TestAddPageAssetsOutsideClassesPath(t *testing.T) {
	ctx := context.Background()
	f := newAssetFixture(t, func(classes string) string {
		return filepath.Join(filepath.Dir(filepath.Dir(classes)), "modules", "Shop")
	})
	dir := filepath.Join(filepath.Dir(filepath.Dir(f.classes)), "modules", "Shop")
	js := filepath.Join(dir, "ReportPage.js")
	require.NoError(t, os.WriteFile(js, []byte("init()"), 0o644))

	require.NoError(t, f.assetsH.AddPageAssets(ctx, f.page))
	assert.Equal(t, []string{js}, f.pipeline.scripts)
	assert.Empty(t, f.pipeline.styles)
	_, err := os.Stat(f.assetsH.CacheDir())
	assert.True(t, os.IsNotExist(err))
}

func TestAssetHookRunsForMagicTypesOnly(t *testing.T) {
	ctx := context.Background()
	pipeline := &recordingPipeline{}
	root := t.TempDir()
	classes := filepath.Join(root, "classes")
	require.NoError(t, os.MkdirAll(classes, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(classes, "page.css"), []byte("x"), 0o644))

	cfg := Config{UseMagicClasses: On, ClassesPath: classes, AssetsPath: filepath.Join(root, "assets")}
	mp, store, _ := initCore(t,
		WithConfig(cfg),
		WithAssetPipeline(pipeline),
		WithLocator(LocatorFunc(func(page.Page) (string, error) {
			return filepath.Join(classes, "page.go"), nil
		})),
	)
	require.NotNil(t, mp)

	basic := newPage(t, store, demo.TemplateBasic)
	_, err := page.NewEditor(store, basic).BuildForm(ctx)
	require.NoError(t, err)
	assert.Empty(t, pipeline.styles)

	report := newPage(t, store, demo.TemplateReport)
	_, err = page.NewEditor(store, report).BuildForm(ctx)
	require.NoError(t, err)
	assert.Len(t, pipeline.styles, 1)
}
