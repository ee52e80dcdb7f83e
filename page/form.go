package page

import (
	"context"

	"github.com/GoCodeAlone/magicpages/hook"
)

// NameField is the settings input holding the page name.
const NameField = "_page_name"

// Input is submitted form data keyed by input name.
type Input map[string]string

// Inputfield is one input of an edit form.
type Inputfield struct {
	Name          string
	ID            string
	Label         string
	Value         any
	Notes         string
	PrependMarkup string
	Disabled      bool
}

// NewInputfield creates an input with the conventional id.
func NewInputfield(name, label string, value any) *Inputfield {
	return &Inputfield{
		Name:  name,
		ID:    "Inputfield_" + name,
		Label: label,
		Value: value,
	}
}

// Form is a tree of inputs.
type Form struct {
	Name     string
	fields   []*Inputfield
	children []*Form
}

// NewForm creates an empty form.
func NewForm(name string) *Form {
	return &Form{Name: name}
}

// Add appends an input.
func (f *Form) Add(in *Inputfield) *Form {
	f.fields = append(f.fields, in)
	return f
}

// Append nests a child form.
func (f *Form) Append(child *Form) *Form {
	if child != nil {
		f.children = append(f.children, child)
	}
	return f
}

// Children returns the nested forms.
func (f *Form) Children() []*Form { return f.children }

// Get finds an input by name anywhere in the form tree.
func (f *Form) Get(name string) *Inputfield {
	for _, in := range f.fields {
		if in.Name == name {
			return in
		}
	}
	for _, c := range f.children {
		if in := c.Get(name); in != nil {
			return in
		}
	}
	return nil
}

// Inputfields returns all inputs of the tree, depth first.
func (f *Form) Inputfields() []*Inputfield {
	out := append([]*Inputfield(nil), f.fields...)
	for _, c := range f.children {
		out = append(out, c.Inputfields()...)
	}
	return out
}

// ProcessInput copies submitted values into enabled inputs, then runs the
// InputfieldForm::processInput hook with the input as argument and the form
// as return value. process identifies the controlling process, nil outside
// of one.
func (f *Form) ProcessInput(ctx context.Context, env *Env, process any, input Input) error {
	return env.Hooks.Run(ctx, EventProcessInput, &hook.Event{
		Object:    f,
		Process:   process,
		Arguments: []any{input},
		Return:    f,
	}, func(ctx context.Context, e *hook.Event) error {
		for _, in := range f.Inputfields() {
			if in.Disabled {
				continue
			}
			if v, ok := input[in.Name]; ok {
				in.Value = v
			}
		}
		return nil
	})
}
