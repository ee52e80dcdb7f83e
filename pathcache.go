package magicpages

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"

	"github.com/GoCodeAlone/magicpages/page"
)

// ErrSourceNotFound is returned when no source file can be located for a type.
var ErrSourceNotFound = errors.New("page type source file not found")

// SourceFiler lets a page type name its own source file.
type SourceFiler interface {
	SourceFile() string
}

// Locator finds the source file defining a page's type.
type Locator interface {
	Locate(p page.Page) (string, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(p page.Page) (string, error)

func (f LocatorFunc) Locate(p page.Page) (string, error) { return f(p) }

// LocateSource is the default locator. It prefers SourceFiler and otherwise
// asks the runtime where the methods declared on the type live.
func LocateSource(p page.Page) (string, error) {
	if sf, ok := p.(SourceFiler); ok {
		if file := sf.SourceFile(); file != "" {
			return file, nil
		}
	}

	typ := reflect.TypeOf(p)
	if typ == nil {
		return "", ErrSourceNotFound
	}
	elem := typ
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	owner := "." + elem.Name() + "."
	ptrOwner := ".(*" + elem.Name() + ")."

	for i := 0; i < typ.NumMethod(); i++ {
		pc := typ.Method(i).Func.Pointer()
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		name := fn.Name()
		if !strings.Contains(name, ptrOwner) && !strings.Contains(name, owner) {
			continue
		}
		file, _ := fn.FileLine(pc)
		if file == "" || file == "<autogenerated>" {
			continue
		}
		return file, nil
	}
	return "", fmt.Errorf("%w: %s", ErrSourceNotFound, typ)
}

// PathCache memoizes source file lookups per template name.
type PathCache struct {
	locator Locator

	mu    sync.Mutex
	paths map[string]string
	calls int
}

// NewPathCache creates a cache over locator. A nil locator uses LocateSource.
func NewPathCache(locator Locator) *PathCache {
	if locator == nil {
		locator = LocatorFunc(LocateSource)
	}
	return &PathCache{locator: locator, paths: make(map[string]string)}
}

// Resolve returns the source file of p's type. The locator runs at most once
// per template; failures are not cached.
func (c *PathCache) Resolve(p page.Page) (string, error) {
	key := p.Template().String()

	c.mu.Lock()
	defer c.mu.Unlock()
	if path, ok := c.paths[key]; ok {
		return path, nil
	}
	c.calls++
	path, err := c.locator.Locate(p)
	if err != nil {
		return "", err
	}
	c.paths[key] = path
	return path, nil
}

// Calls returns how often the underlying locator was invoked.
func (c *PathCache) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Paths returns a copy of the cached template -> file mapping.
func (c *PathCache) Paths() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.paths))
	for k, v := range c.paths {
		out[k] = v
	}
	return out
}
