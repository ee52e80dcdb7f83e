package magicpages

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/GoCodeAlone/magicpages/page"
)

// WatchedFile describes a page type source file under watch.
type WatchedFile struct {
	Template string    `json:"template"`
	Path     string    `json:"path"`
	Migrate  bool      `json:"migrate"`
	LastRun  time.Time `json:"lastRun,omitzero"`
}

type watchEntry struct {
	page    page.Page
	file    WatchedFile
	lastMod time.Time
}

// MigrationWatcher runs Migrate on page types whose source file changed
// since their last migration.
type MigrationWatcher struct {
	paths  *PathCache
	logger Logger

	mu      sync.Mutex
	entries []*watchEntry
	byTpl   map[string]*watchEntry
	fsw     *fsnotify.Watcher
}

// NewMigrationWatcher creates a watcher resolving source files through paths.
func NewMigrationWatcher(paths *PathCache, logger Logger) *MigrationWatcher {
	if logger == nil {
		logger = nopLogger{}
	}
	return &MigrationWatcher{
		paths:  paths,
		logger: logger,
		byTpl:  make(map[string]*watchEntry),
	}
}

// Watch registers the source file of p's type. migrate marks whether the
// type implements Migrator. Watching a template twice replaces the entry.
func (w *MigrationWatcher) Watch(p page.Page, migrate bool) error {
	path, err := w.paths.Resolve(p)
	if err != nil {
		return err
	}
	tpl := p.Template().String()

	w.mu.Lock()
	defer w.mu.Unlock()
	if e, ok := w.byTpl[tpl]; ok {
		e.page = p
		e.file.Path = path
		e.file.Migrate = migrate
		return nil
	}
	e := &watchEntry{
		page: p,
		file: WatchedFile{Template: tpl, Path: path, Migrate: migrate},
	}
	w.entries = append(w.entries, e)
	w.byTpl[tpl] = e
	return nil
}

// Watched lists the watched files in registration order.
func (w *MigrationWatcher) Watched() []WatchedFile {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]WatchedFile, len(w.entries))
	for i, e := range w.entries {
		out[i] = e.file
	}
	return out
}

// MigrateChanged runs Migrate for every migrating type whose source file is
// newer than at its last run. Failing migrations are retried on the next call.
// It returns the number of successful migrations.
func (w *MigrationWatcher) MigrateChanged(ctx context.Context) (int, error) {
	type due struct {
		entry *watchEntry
		mod   time.Time
	}

	w.mu.Lock()
	var todo []due
	for _, e := range w.entries {
		if !e.file.Migrate {
			continue
		}
		info, err := os.Stat(e.file.Path)
		if err != nil {
			w.logger.Warn("Cannot stat page source", "template", e.file.Template, "path", e.file.Path, "error", err)
			continue
		}
		if info.ModTime().After(e.lastMod) {
			todo = append(todo, due{entry: e, mod: info.ModTime()})
		}
	}
	w.mu.Unlock()

	var errs []error
	ran := 0
	for _, d := range todo {
		m, ok := d.entry.page.(Migrator)
		if !ok {
			continue
		}
		if err := m.Migrate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrMigrateFailed, d.entry.file.Template, err))
			continue
		}
		w.mu.Lock()
		d.entry.lastMod = d.mod
		d.entry.file.LastRun = time.Now()
		w.mu.Unlock()
		w.logger.Info("Page type migrated", "template", d.entry.file.Template, "path", d.entry.file.Path)
		ran++
	}
	return ran, errors.Join(errs...)
}

// Run watches the directories of all watched files and migrates on change
// until ctx is done.
func (w *MigrationWatcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.fsw = fsw
	dirs := make(map[string]struct{})
	files := make(map[string]struct{})
	for _, e := range w.entries {
		if !e.file.Migrate {
			continue
		}
		files[filepath.Clean(e.file.Path)] = struct{}{}
		dirs[filepath.Dir(e.file.Path)] = struct{}{}
	}
	w.mu.Unlock()

	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn("Cannot watch directory", "dir", dir, "error", err)
		}
	}
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if _, watched := files[filepath.Clean(ev.Name)]; !watched {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if _, err := w.MigrateChanged(ctx); err != nil {
				w.logger.Error("Migration failed", "path", ev.Name, "error", err)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", "error", err)
		}
	}
}

// Close stops the file watcher started by Run.
func (w *MigrationWatcher) Close() error {
	w.mu.Lock()
	fsw := w.fsw
	w.fsw = nil
	w.mu.Unlock()
	if fsw == nil {
		return nil
	}
	return fsw.Close()
}
