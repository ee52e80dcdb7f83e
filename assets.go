package magicpages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/GoCodeAlone/magicpages/hook"
	"github.com/GoCodeAlone/magicpages/page"
)

// AssetDir is the directory below AssetsPath that receives copied assets.
const AssetDir = "MagicPages/assets"

// AssetExtensions are looked up next to a page type's source file, in order.
var AssetExtensions = []string{"css", "js"}

// AssetPipeline receives the stylesheets and scripts of the edited page.
type AssetPipeline interface {
	AddStyles(path string)
	AddScripts(path string)
}

// Assets hands the css/js files living next to a page type's source file to
// the asset pipeline. Sources below ClassesPath are not web accessible, so they
// are first copied to AssetsPath/MagicPages/assets.
type Assets struct {
	classesPath string
	assetsPath  string
	paths       *PathCache
	pipeline    AssetPipeline
	logger      Logger
}

// NewAssets creates the asset handoff.
func NewAssets(cfg Config, paths *PathCache, pipeline AssetPipeline, logger Logger) *Assets {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Assets{
		classesPath: filepath.Clean(cfg.ClassesPath),
		assetsPath:  filepath.Clean(cfg.AssetsPath),
		paths:       paths,
		pipeline:    pipeline,
		logger:      logger,
	}
}

// CacheDir returns the directory copies are written to.
func (a *Assets) CacheDir() string {
	return filepath.Join(a.assetsPath, filepath.FromSlash(AssetDir))
}

// AddPageAssets syncs and hands off the assets of p's type. Copies are
// refreshed when the source is newer and removed when the source is gone.
func (a *Assets) AddPageAssets(_ context.Context, p page.Page) error {
	src, err := a.paths.Resolve(p)
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(src, filepath.Ext(src))
	if !a.restricted(src) {
		a.handOffInPlace(base)
		return nil
	}

	for _, ext := range AssetExtensions {
		file := base + "." + ext
		cache := filepath.Join(a.CacheDir(), filepath.Base(file))

		srcInfo, srcErr := os.Stat(file)
		if errors.Is(srcErr, fs.ErrNotExist) {
			if err := os.Remove(cache); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: remove %s: %w", ErrAssetCopy, cache, err)
			}
			continue
		}
		if srcErr != nil {
			return fmt.Errorf("%w: %w", ErrAssetCopy, srcErr)
		}

		if cacheInfo, err := os.Stat(cache); err != nil || srcInfo.ModTime().After(cacheInfo.ModTime()) {
			if err := copyFile(file, cache); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrAssetCopy, file, err)
			}
			a.logger.Debug("Page asset copied", "source", file, "target", cache)
		}

		a.handOff(ext, cache)
	}
	return nil
}

// handOffInPlace passes assets outside the classes directory on unchanged.
func (a *Assets) handOffInPlace(base string) {
	for _, ext := range AssetExtensions {
		file := base + "." + ext
		if _, err := os.Stat(file); err == nil {
			a.handOff(ext, file)
		}
	}
}

func (a *Assets) handOff(ext, path string) {
	if a.pipeline == nil {
		return
	}
	switch ext {
	case "css":
		a.pipeline.AddStyles(path)
	case "js":
		a.pipeline.AddScripts(path)
	}
}

// restricted reports whether path lies below the classes directory.
func (a *Assets) restricted(path string) bool {
	if a.classesPath == "" || a.classesPath == "." {
		return false
	}
	rel, err := filepath.Rel(a.classesPath, filepath.Clean(path))
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// handler returns the buildForm hook. It only acts on pages accepted by want.
func (a *Assets) handler(want func(page.Page) bool) hook.Handler {
	return func(ctx context.Context, e *hook.Event) error {
		ed, ok := e.Process.(pageEditor)
		if !ok {
			return nil
		}
		p := ed.Page()
		if p == nil || !want(p) {
			return nil
		}
		return a.AddPageAssets(ctx, p)
	}
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
