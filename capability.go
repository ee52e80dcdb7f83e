// Package magicpages gives page types optional lifecycle behavior without
// registration. A page type opts in by implementing MagicPage; every other
// capability interface it implements (SavedHandler, PageNamer, FormEditor ...)
// is discovered once at startup and bound to the matching lifecycle hook for
// that exact type.
//
// Basic usage:
//
//	pages := page.NewPages(page.NewEnv(), templates...)
//	mp, err := magicpages.New(pages, magicpages.WithConfig(cfg))
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := mp.Init(ctx); err != nil {
//		log.Fatal(err)
//	}
//	// ... remaining application initialization ...
//	if err := mp.Ready(ctx); err != nil {
//		log.Fatal(err)
//	}
package magicpages

import (
	"context"
	"strings"

	"github.com/GoCodeAlone/magicpages/page"
)

// MagicPage marks a page type as participating in capability dispatch.
// Types without it, or returning false, are skipped at no cost.
type MagicPage interface {
	IsMagicPage() bool
}

// Initializer runs once during discovery, on the probe instance.
type Initializer interface {
	Init(ctx context.Context) error
}

// Readier runs once after discovery of all types has finished.
type Readier interface {
	Ready(ctx context.Context) error
}

// Migrator runs when the type's source file changed since the last migration.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// FormEditor adjusts the complete edit form of a page of this type.
type FormEditor interface {
	EditForm(ctx context.Context, form *page.Form) error
}

// ContentFormEditor adjusts the content section of the edit form.
type ContentFormEditor interface {
	EditFormContent(ctx context.Context, form *page.Form) error
}

// SettingsFormEditor adjusts the settings section of the edit form.
type SettingsFormEditor interface {
	EditFormSettings(ctx context.Context, form *page.Form) error
}

// SavedHandler runs after every save, including the first one.
type SavedHandler interface {
	OnSaved(ctx context.Context) error
}

// SaveReadyHandler runs before every save, including the first one.
type SaveReadyHandler interface {
	OnSaveReady(ctx context.Context) error
}

// CreateHandler runs before the first save, while the page has no id.
type CreateHandler interface {
	OnCreate(ctx context.Context) error
}

// AddedHandler runs once, right after the page got its id.
type AddedHandler interface {
	OnAdded(ctx context.Context) error
}

// TrashedHandler runs when the page is moved to the trash.
type TrashedHandler interface {
	OnTrashed(ctx context.Context) error
}

// InputProcessor runs after edit form input was processed in the page editor.
type InputProcessor interface {
	OnProcessInput(ctx context.Context, input page.Input, form *page.Form) error
}

// ChangeHandler runs when a field value of the page changes.
type ChangeHandler interface {
	OnChanged(ctx context.Context, field string, oldValue, newValue any) error
}

// PageNamer computes the page name from the page's own state. The result is
// sanitized with Slugify and stored after every save of a persisted page.
type PageNamer interface {
	SetPageName() string
}

// Capability names an optional behavior.
type Capability int

const (
	CapInit Capability = iota
	CapReady
	CapMigrate
	CapEditForm
	CapEditFormContent
	CapEditFormSettings
	CapOnSaved
	CapOnSaveReady
	CapOnCreate
	CapOnAdded
	CapOnTrashed
	CapOnProcessInput
	CapOnChanged
	CapSetPageName
)

var capabilityNames = [...]string{
	CapInit:             "init",
	CapReady:            "ready",
	CapMigrate:          "migrate",
	CapEditForm:         "editForm",
	CapEditFormContent:  "editFormContent",
	CapEditFormSettings: "editFormSettings",
	CapOnSaved:          "onSaved",
	CapOnSaveReady:      "onSaveReady",
	CapOnCreate:         "onCreate",
	CapOnAdded:          "onAdded",
	CapOnTrashed:        "onTrashed",
	CapOnProcessInput:   "onProcessInput",
	CapOnChanged:        "onChanged",
	CapSetPageName:      "setPageName",
}

// AllCapabilities lists every capability in declaration order.
func AllCapabilities() []Capability {
	out := make([]Capability, len(capabilityNames))
	for i := range capabilityNames {
		out[i] = Capability(i)
	}
	return out
}

func (c Capability) String() string {
	if c < 0 || int(c) >= len(capabilityNames) {
		return "unknown"
	}
	return capabilityNames[c]
}

// CapabilitySet records which capabilities a page type implements.
type CapabilitySet struct {
	Init             bool `json:"init"`
	Ready            bool `json:"ready"`
	Migrate          bool `json:"migrate"`
	EditForm         bool `json:"editForm"`
	EditFormContent  bool `json:"editFormContent"`
	EditFormSettings bool `json:"editFormSettings"`
	OnSaved          bool `json:"onSaved"`
	OnSaveReady      bool `json:"onSaveReady"`
	OnCreate         bool `json:"onCreate"`
	OnAdded          bool `json:"onAdded"`
	OnTrashed        bool `json:"onTrashed"`
	OnProcessInput   bool `json:"onProcessInput"`
	OnChanged        bool `json:"onChanged"`
	SetPageName      bool `json:"setPageName"`
}

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c Capability) bool {
	switch c {
	case CapInit:
		return s.Init
	case CapReady:
		return s.Ready
	case CapMigrate:
		return s.Migrate
	case CapEditForm:
		return s.EditForm
	case CapEditFormContent:
		return s.EditFormContent
	case CapEditFormSettings:
		return s.EditFormSettings
	case CapOnSaved:
		return s.OnSaved
	case CapOnSaveReady:
		return s.OnSaveReady
	case CapOnCreate:
		return s.OnCreate
	case CapOnAdded:
		return s.OnAdded
	case CapOnTrashed:
		return s.OnTrashed
	case CapOnProcessInput:
		return s.OnProcessInput
	case CapOnChanged:
		return s.OnChanged
	case CapSetPageName:
		return s.SetPageName
	}
	return false
}

// List returns the capabilities in the set in declaration order.
func (s CapabilitySet) List() []Capability {
	var out []Capability
	for _, c := range AllCapabilities() {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s CapabilitySet) String() string {
	list := s.List()
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = c.String()
	}
	return strings.Join(names, ",")
}

// IsMagic reports whether p carries the marker and it is switched on.
func IsMagic(p page.Page) bool {
	m, ok := p.(MagicPage)
	return ok && m.IsMagicPage()
}

// Probe computes the capability set of p's concrete type with one type
// assertion per capability. Probe never fails: a missing capability is simply
// absent from the set.
func Probe(p page.Page) CapabilitySet {
	var s CapabilitySet
	_, s.Init = p.(Initializer)
	_, s.Ready = p.(Readier)
	_, s.Migrate = p.(Migrator)
	_, s.EditForm = p.(FormEditor)
	_, s.EditFormContent = p.(ContentFormEditor)
	_, s.EditFormSettings = p.(SettingsFormEditor)
	_, s.OnSaved = p.(SavedHandler)
	_, s.OnSaveReady = p.(SaveReadyHandler)
	_, s.OnCreate = p.(CreateHandler)
	_, s.OnAdded = p.(AddedHandler)
	_, s.OnTrashed = p.(TrashedHandler)
	_, s.OnProcessInput = p.(InputProcessor)
	_, s.OnChanged = p.(ChangeHandler)
	_, s.SetPageName = p.(PageNamer)
	return s
}
