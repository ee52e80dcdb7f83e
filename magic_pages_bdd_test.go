package magicpages

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"

	"github.com/GoCodeAlone/magicpages/internal/demo"
	"github.com/GoCodeAlone/magicpages/page"
)

// Static errors for bdd tests
var (
	errNoCore           = errors.New("magic pages not created")
	errNoPage           = errors.New("no page available")
	errUnexpectedResult = errors.New("unexpected result")
)

// MagicPagesBDDContext holds the state of one scenario.
type MagicPagesBDDContext struct {
	journal  *demo.Journal
	store    *page.Pages
	cfg      Config
	renderer Renderer
	core     *MagicPages
	page     page.Page
	result   any
	lastErr  error
}

func (c *MagicPagesBDDContext) resetContext() {
	c.journal = nil
	c.store = nil
	c.cfg = DefaultConfig()
	c.renderer = nil
	c.core = nil
	c.page = nil
	c.result = nil
	c.lastErr = nil
}

func (c *MagicPagesBDDContext) iHaveTheDemoPageStore() error {
	c.journal = &demo.Journal{}
	c.store = demo.NewStore(c.journal)
	return nil
}

func (c *MagicPagesBDDContext) magicPagesAreEnabled() error {
	c.cfg.UseMagicClasses = On
	return nil
}

func (c *MagicPagesBDDContext) magicPagesAreDisabled() error {
	c.cfg.UseMagicClasses = Off
	return nil
}

func (c *MagicPagesBDDContext) build() error {
	opts := []Option{WithConfig(c.cfg)}
	if c.renderer != nil {
		opts = append(opts, WithRenderer(c.renderer))
	}
	core, err := New(c.store, opts...)
	if err != nil {
		return err
	}
	c.core = core
	return nil
}

func (c *MagicPagesBDDContext) iInitializeMagicPages() error {
	if err := c.build(); err != nil {
		return err
	}
	return c.core.Init(context.Background())
}

func (c *MagicPagesBDDContext) magicPagesAreInitialized() error {
	return c.iInitializeMagicPages()
}

func (c *MagicPagesBDDContext) magicPagesAreInitializedWithAParagraphRenderer() error {
	c.renderer = RendererFunc(func(s string) string { return "<p>" + s + "</p>" })
	return c.iInitializeMagicPages()
}

func (c *MagicPagesBDDContext) iInitializeMagicPagesAgain() error {
	if c.core == nil {
		return errNoCore
	}
	c.lastErr = c.core.Init(context.Background())
	return nil
}

func (c *MagicPagesBDDContext) initializationShouldFailBecauseItAlreadyRan() error {
	if !errors.Is(c.lastErr, ErrAlreadyInitialized) {
		return fmt.Errorf("%w: expected %v, got %v", errUnexpectedResult, ErrAlreadyInitialized, c.lastErr)
	}
	return nil
}

func (c *MagicPagesBDDContext) iMarkMagicPagesReady() error {
	if c.core == nil {
		return errNoCore
	}
	return c.core.Ready(context.Background())
}

func (c *MagicPagesBDDContext) magicPageTypesShouldBeDiscovered(n int) error {
	if got := len(c.core.Registry().Types()); got != n {
		return fmt.Errorf("%w: expected %d types, got %d", errUnexpectedResult, n, got)
	}
	return nil
}

func (c *MagicPagesBDDContext) theTemplateShouldNotBeAMagicPageType(template string) error {
	for _, info := range c.core.Registry().Types() {
		if info.Template == template {
			return fmt.Errorf("%w: %s was discovered as %s", errUnexpectedResult, template, info.TypeName)
		}
	}
	return nil
}

func (c *MagicPagesBDDContext) thereShouldBeSubscriptions(n int) error {
	if got := len(c.core.Binder().Subscriptions()); got != n {
		return fmt.Errorf("%w: expected %d subscriptions, got %d", errUnexpectedResult, n, got)
	}
	return nil
}

func (c *MagicPagesBDDContext) newReport() (page.Page, error) {
	tpl := c.store.Template(demo.TemplateReport)
	if tpl == nil {
		return nil, errNoPage
	}
	return c.store.NewPage(tpl), nil
}

func (c *MagicPagesBDDContext) iSaveAReportTitledDated(title, date string) error {
	ctx := context.Background()
	p, err := c.newReport()
	if err != nil {
		return err
	}
	if err := p.Set(ctx, "report_title", title); err != nil {
		return err
	}
	if err := p.Set(ctx, "report_date", date); err != nil {
		return err
	}
	c.page = p
	return c.store.Save(ctx, p)
}

func (c *MagicPagesBDDContext) thePageNameShouldBe(name string) error {
	if c.page == nil {
		return errNoPage
	}
	if got := c.page.Name(); got != name {
		return fmt.Errorf("%w: expected name %q, got %q", errUnexpectedResult, name, got)
	}
	return nil
}

func (c *MagicPagesBDDContext) iSaveANewProject() error {
	tpl := c.store.Template(demo.TemplateProject)
	if tpl == nil {
		return errNoPage
	}
	c.page = c.store.NewPage(tpl)
	return c.store.Save(context.Background(), c.page)
}

func (c *MagicPagesBDDContext) iTrashThePage() error {
	if c.page == nil {
		return errNoPage
	}
	return c.store.Trash(context.Background(), c.page)
}

func (c *MagicPagesBDDContext) theJournalShouldContainTimes(prefix string, n int) error {
	if got := c.journal.Count(prefix); got != n {
		return fmt.Errorf("%w: expected %q %d times, got %d in %v", errUnexpectedResult, prefix, n, got, c.journal.Entries())
	}
	return nil
}

func (c *MagicPagesBDDContext) aReportDated(date string) error {
	p, err := c.newReport()
	if err != nil {
		return err
	}
	c.page = p
	return p.Set(context.Background(), "report_date", date)
}

func (c *MagicPagesBDDContext) iCallTheAccessorWithMode(method string, mode int) error {
	if c.page == nil {
		return errNoPage
	}
	v, err := c.page.Call(context.Background(), method, mode)
	if err != nil {
		return err
	}
	c.result = v
	return nil
}

func (c *MagicPagesBDDContext) theAccessorShouldReturn(want string) error {
	if got := fmt.Sprint(c.result); got != want {
		return fmt.Errorf("%w: expected %q, got %q", errUnexpectedResult, want, got)
	}
	return nil
}

// InitializeMagicPagesScenario wires the magic page steps.
func InitializeMagicPagesScenario(ctx *godog.ScenarioContext) {
	testCtx := &MagicPagesBDDContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		testCtx.resetContext()
		return ctx, nil
	})

	// Background
	ctx.Step(`^I have the demo page store$`, testCtx.iHaveTheDemoPageStore)

	// Discovery
	ctx.Step(`^magic pages are enabled$`, testCtx.magicPagesAreEnabled)
	ctx.Step(`^magic pages are disabled$`, testCtx.magicPagesAreDisabled)
	ctx.Step(`^magic pages are initialized$`, testCtx.magicPagesAreInitialized)
	ctx.Step(`^magic pages are initialized with a paragraph renderer$`, testCtx.magicPagesAreInitializedWithAParagraphRenderer)
	ctx.Step(`^I initialize magic pages$`, testCtx.iInitializeMagicPages)
	ctx.Step(`^I initialize magic pages again$`, testCtx.iInitializeMagicPagesAgain)
	ctx.Step(`^initialization should fail because it already ran$`, testCtx.initializationShouldFailBecauseItAlreadyRan)
	ctx.Step(`^I mark magic pages ready$`, testCtx.iMarkMagicPagesReady)
	ctx.Step(`^(\d+) magic page types should be discovered$`, testCtx.magicPageTypesShouldBeDiscovered)
	ctx.Step(`^the "([^"]*)" template should not be a magic page type$`, testCtx.theTemplateShouldNotBeAMagicPageType)
	ctx.Step(`^there should be (\d+) subscriptions$`, testCtx.thereShouldBeSubscriptions)

	// Lifecycle
	ctx.Step(`^I save a report titled "([^"]*)" dated "([^"]*)"$`, testCtx.iSaveAReportTitledDated)
	ctx.Step(`^the page name should be "([^"]*)"$`, testCtx.thePageNameShouldBe)
	ctx.Step(`^I save a new project$`, testCtx.iSaveANewProject)
	ctx.Step(`^I trash the page$`, testCtx.iTrashThePage)
	ctx.Step(`^the journal should contain "([^"]*)" (\d+) times?$`, testCtx.theJournalShouldContainTimes)

	// Field accessors
	ctx.Step(`^a report dated "([^"]*)"$`, testCtx.aReportDated)
	ctx.Step(`^I call the "([^"]*)" accessor with mode (\d+)$`, testCtx.iCallTheAccessorWithMode)
	ctx.Step(`^the accessor should return "([^"]*)"$`, testCtx.theAccessorShouldReturn)
}

// TestMagicPagesFeatures runs the BDD tests for discovery and dispatch.
func TestMagicPagesFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeMagicPagesScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/magic_pages.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
