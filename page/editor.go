package page

import (
	"context"
	"fmt"

	"github.com/GoCodeAlone/magicpages/hook"
)

// Editor assembles and processes the edit form of one page. It is the
// process passed along with every form hook it runs.
type Editor struct {
	store *Pages
	page  Page
}

// NewEditor creates an editor for p.
func NewEditor(store *Pages, p Page) *Editor {
	return &Editor{store: store, page: p}
}

// Page returns the edited page.
func (ed *Editor) Page() Page { return ed.page }

// BuildForm assembles the content section, the settings section and finally
// the whole form, running ProcessPageEdit::buildFormContent,
// ProcessPageEdit::buildFormSettings and ProcessPageEdit::buildForm.
func (ed *Editor) BuildForm(ctx context.Context) (*Form, error) {
	if ed.page == nil {
		return nil, ErrNoEditedPage
	}
	hooks := ed.store.env.Hooks

	content := &hook.Event{Object: ed, Process: ed}
	if err := hooks.Run(ctx, EventBuildFormContent, content, func(ctx context.Context, e *hook.Event) error {
		e.Return = ed.contentForm()
		return nil
	}); err != nil {
		return nil, err
	}

	settings := &hook.Event{Object: ed, Process: ed}
	if err := hooks.Run(ctx, EventBuildFormSettings, settings, func(ctx context.Context, e *hook.Event) error {
		e.Return = ed.settingsForm()
		return nil
	}); err != nil {
		return nil, err
	}

	form := NewForm("ProcessPageEdit")
	form.Append(asForm(content.Return)).Append(asForm(settings.Return))

	e := &hook.Event{Object: ed, Process: ed, Return: form}
	if err := hooks.Run(ctx, EventBuildForm, e, nil); err != nil {
		return nil, err
	}
	if f := asForm(e.Return); f != nil {
		return f, nil
	}
	return nil, fmt.Errorf("build form for page %d: %w", ed.page.ID(), ErrNoEditedPage)
}

// ProcessInput processes submitted input and writes field values and the
// page name back to the page. Field writes go through Page.Set, so change
// hooks fire for every modified field.
func (ed *Editor) ProcessInput(ctx context.Context, form *Form, input Input) error {
	if ed.page == nil {
		return ErrNoEditedPage
	}
	if err := form.ProcessInput(ctx, ed.store.env, ed, input); err != nil {
		return err
	}

	if tpl := ed.page.Template(); tpl != nil {
		for _, f := range tpl.Fields {
			in := form.Get(f.Name)
			if in == nil || in.Disabled {
				continue
			}
			if v, ok := input[f.Name]; ok {
				if err := ed.page.Set(ctx, f.Name, v); err != nil {
					return err
				}
			}
		}
	}

	if in := form.Get(NameField); in != nil && !in.Disabled {
		if v := input[NameField]; v != "" {
			ed.page.SetName(v)
		}
	}
	return nil
}

func (ed *Editor) contentForm() *Form {
	f := NewForm("content")
	if tpl := ed.page.Template(); tpl != nil {
		for _, field := range tpl.Fields {
			label := field.Label
			if label == "" {
				label = field.Name
			}
			f.Add(NewInputfield(field.Name, label, ed.page.GetUnformatted(field.Name)))
		}
	}
	return f
}

func (ed *Editor) settingsForm() *Form {
	return NewForm("settings").Add(NewInputfield(NameField, "Name", ed.page.Name()))
}

func asForm(v any) *Form {
	f, _ := v.(*Form)
	return f
}
