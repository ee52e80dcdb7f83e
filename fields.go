package magicpages

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/GoCodeAlone/magicpages/hook"
	"github.com/GoCodeAlone/magicpages/page"
)

// FieldSeparator splits a field name into prefix segments and its short name.
const FieldSeparator = "_"

const fieldAccessorOwner = "magicpages/fields"

// AccessorMode selects what a synthesized field accessor returns.
type AccessorMode int

const (
	// ModeDisplay returns Page.Edit(field), passed through the Renderer when
	// it is a string. It is used when the accessor gets no argument.
	ModeDisplay AccessorMode = iota

	// ModeFormatted returns Page.GetFormatted(field) without edit wrapper or
	// renderer.
	ModeFormatted

	// ModeUnformatted returns Page.GetUnformatted(field), bypassing every
	// formatter.
	ModeUnformatted
)

// Renderer post-processes textual field output, e.g. to expand markup.
type Renderer interface {
	Render(s string) string
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(s string) string

func (f RendererFunc) Render(s string) string { return f(s) }

// ShortName returns the last separator-delimited segment of a field name:
// "foo_bar_baz" becomes "baz".
func ShortName(fieldName string) string {
	if i := strings.LastIndex(fieldName, FieldSeparator); i >= 0 {
		return fieldName[i+len(FieldSeparator):]
	}
	return fieldName
}

// accessorMode maps the accessor argument to a mode. Integer 2 selects the
// unformatted value, any other truthy value the formatted one.
func accessorMode(arg any) AccessorMode {
	switch v := arg.(type) {
	case AccessorMode:
		return v
	case int:
		switch {
		case v == 2:
			return ModeUnformatted
		case v != 0:
			return ModeFormatted
		}
	case bool:
		if v {
			return ModeFormatted
		}
	case string:
		if v != "" && v != "0" {
			return ModeFormatted
		}
	}
	return ModeDisplay
}

// FieldSynthesizer installs short-name accessor methods for template fields.
// Accessors are added at the lowest priority, so any other handler for the
// same method name on the same type decides the result.
type FieldSynthesizer struct {
	methods  *hook.Methods
	renderer Renderer
	logger   Logger

	mu    sync.RWMutex
	names map[reflect.Type]map[string]string
}

// NewFieldSynthesizer creates a synthesizer writing into methods. renderer
// may be nil.
func NewFieldSynthesizer(methods *hook.Methods, renderer Renderer, logger Logger) *FieldSynthesizer {
	if logger == nil {
		logger = nopLogger{}
	}
	return &FieldSynthesizer{
		methods:  methods,
		renderer: renderer,
		logger:   logger,
		names:    make(map[reflect.Type]map[string]string),
	}
}

// Synthesize installs one accessor per field of p's template. When two fields
// share a short name, the one declared later wins. It returns the number of
// accessors installed.
func (s *FieldSynthesizer) Synthesize(p page.Page) (int, error) {
	tpl := p.Template()
	if tpl == nil {
		return 0, nil
	}
	typ := reflect.TypeOf(p)

	installed := 0
	for _, f := range tpl.Fields {
		short := ShortName(f.Name)
		if short == "" {
			continue
		}
		err := s.methods.Add(typ, short, s.accessor(f.Name),
			hook.WithMethodPriority(hook.LowestPriority),
			hook.WithOwner(fieldAccessorOwner),
		)
		if err != nil {
			return installed, err
		}

		s.mu.Lock()
		names, ok := s.names[typ]
		if !ok {
			names = make(map[string]string)
			s.names[typ] = names
		}
		if prev, dup := names[short]; dup && prev != f.Name {
			s.logger.Debug("Field accessor replaced", "type", typ.String(), "method", short, "previous", prev, "field", f.Name)
		}
		names[short] = f.Name
		s.mu.Unlock()
		installed++
	}
	return installed, nil
}

// Accessors returns short name -> field name for a type.
func (s *FieldSynthesizer) Accessors(typ reflect.Type) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.names[typ]))
	for k, v := range s.names[typ] {
		out[k] = v
	}
	return out
}

// Count returns the number of accessors across all types.
func (s *FieldSynthesizer) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, names := range s.names {
		n += len(names)
	}
	return n
}

// AccessorNames lists a type's accessor names sorted.
func (s *FieldSynthesizer) AccessorNames(typ reflect.Type) []string {
	names := s.Accessors(typ)
	out := make([]string, 0, len(names))
	for k := range names {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *FieldSynthesizer) accessor(field string) hook.Handler {
	return func(ctx context.Context, e *hook.Event) error {
		p, ok := e.Object.(page.Page)
		if !ok {
			return ErrNotAPage
		}
		switch accessorMode(e.Argument(0)) {
		case ModeUnformatted:
			e.Return = p.GetUnformatted(field)
		case ModeFormatted:
			e.Return = p.GetFormatted(field)
		default:
			v := p.Edit(field)
			if str, ok := v.(string); ok && s.renderer != nil {
				v = s.renderer.Render(str)
			}
			e.Return = v
		}
		return nil
	}
}
