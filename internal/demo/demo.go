// Package demo holds sample page types used by the CLI and tests.
package demo

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/GoCodeAlone/magicpages/page"
)

// Template names.
const (
	TemplateBasic    = "basic"
	TemplateReport   = "report"
	TemplateProject  = "project"
	TemplateArchived = "archived"
)

// Journal records capability calls in order.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

// Record appends an entry.
func (j *Journal) Record(format string, args ...any) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

// Entries returns a copy of the recorded entries.
func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// Count returns how many entries start with prefix.
func (j *Journal) Count(prefix string) int {
	n := 0
	for _, e := range j.Entries() {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

// Reset clears the journal.
func (j *Journal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = nil
}

// BasicPage has no marker and is never discovered.
type BasicPage struct {
	page.Base
}

// ArchivedPage carries the marker but has it switched off.
type ArchivedPage struct {
	page.Base
	journal *Journal
}

func (p *ArchivedPage) IsMagicPage() bool { return false }

func (p *ArchivedPage) OnSaved(context.Context) error {
	p.journal.Record("archived.onSaved")
	return nil
}

// ReportPage derives its name from title and date.
type ReportPage struct {
	page.Base
	journal *Journal
}

func (p *ReportPage) IsMagicPage() bool { return true }

func (p *ReportPage) Init(context.Context) error {
	p.journal.Record("report.init")
	return nil
}

func (p *ReportPage) Ready(context.Context) error {
	p.journal.Record("report.ready")
	return nil
}

func (p *ReportPage) OnSaved(context.Context) error {
	p.journal.Record("report.onSaved %d", p.ID())
	return nil
}

func (p *ReportPage) OnCreate(ctx context.Context) error {
	p.journal.Record("report.onCreate")
	if p.GetUnformatted("report_date") == nil {
		return p.Set(ctx, "report_date", "undated")
	}
	return nil
}

func (p *ReportPage) EditForm(_ context.Context, form *page.Form) error {
	p.journal.Record("report.editForm")
	if in := form.Get("report_title"); in != nil {
		in.Notes = "Shown in listings."
	}
	return nil
}

// SetPageName builds "<title> - <date>".
func (p *ReportPage) SetPageName() string {
	return fmt.Sprintf("%v - %v", p.GetUnformatted("report_title"), p.GetUnformatted("report_date"))
}

// ProjectPage exercises the remaining lifecycle capabilities.
type ProjectPage struct {
	page.Base
	journal *Journal
}

func (p *ProjectPage) IsMagicPage() bool { return true }

func (p *ProjectPage) Migrate(context.Context) error {
	p.journal.Record("project.migrate")
	return nil
}

func (p *ProjectPage) OnSaveReady(context.Context) error {
	p.journal.Record("project.onSaveReady")
	return nil
}

// OnCreate assigns a stable project code.
func (p *ProjectPage) OnCreate(ctx context.Context) error {
	p.journal.Record("project.onCreate")
	return p.Set(ctx, "project_code", uuid.NewString())
}

func (p *ProjectPage) OnAdded(context.Context) error {
	p.journal.Record("project.onAdded %d", p.ID())
	return nil
}

func (p *ProjectPage) OnTrashed(context.Context) error {
	p.journal.Record("project.onTrashed %d", p.ID())
	return nil
}

func (p *ProjectPage) OnChanged(_ context.Context, field string, oldValue, newValue any) error {
	p.journal.Record("project.onChanged %s %v -> %v", field, oldValue, newValue)
	return nil
}

func (p *ProjectPage) OnProcessInput(_ context.Context, input page.Input, _ *page.Form) error {
	p.journal.Record("project.onProcessInput %d", len(input))
	return nil
}

func (p *ProjectPage) EditFormContent(_ context.Context, form *page.Form) error {
	p.journal.Record("project.editFormContent")
	if in := form.Get("project_code"); in != nil {
		in.Disabled = true
	}
	return nil
}

func (p *ProjectPage) EditFormSettings(context.Context, *page.Form) error {
	p.journal.Record("project.editFormSettings")
	return nil
}

// Templates returns the demo templates, in discovery order, with pages
// reporting to journal.
func Templates(journal *Journal) []*page.Template {
	upper := func(v any) any {
		if s, ok := v.(string); ok {
			return strings.ToUpper(s)
		}
		return v
	}
	return []*page.Template{
		{
			Name:   TemplateBasic,
			Fields: []*page.Field{{Name: "title", Label: "Title"}},
			New:    func() page.Page { return &BasicPage{} },
		},
		{
			Name: TemplateReport,
			Fields: []*page.Field{
				{Name: "report_title", Label: "Title", Format: upper},
				{Name: "report_date", Label: "Date"},
				{Name: "report_body", Label: "Body"},
				{Name: "meta_title", Label: "Meta title"},
			},
			New: func() page.Page { return &ReportPage{journal: journal} },
		},
		{
			Name: TemplateProject,
			Fields: []*page.Field{
				{Name: "project_code", Label: "Code"},
				{Name: "project_status", Label: "Status"},
			},
			New: func() page.Page { return &ProjectPage{journal: journal} },
		},
		{
			Name:   TemplateArchived,
			Fields: []*page.Field{{Name: "archived_title", Label: "Title"}},
			New:    func() page.Page { return &ArchivedPage{journal: journal} },
		},
	}
}

// NewStore creates a page store holding the demo templates.
func NewStore(journal *Journal) *page.Pages {
	return page.NewPages(page.NewEnv(), Templates(journal)...)
}
