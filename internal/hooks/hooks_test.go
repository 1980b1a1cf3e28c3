package hooks

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"testing"
)

func TestActivateRunsInOrderAndStopsOnError(t *testing.T) {
	r := NewRegistry()
	var calls []string
	boom := errors.New("boom")

	r.OnActivate(func(context.Context) error { calls = append(calls, "first"); return nil })
	r.OnActivate(func(context.Context) error { calls = append(calls, "second"); return boom })
	r.OnActivate(func(context.Context) error { calls = append(calls, "third"); return nil })

	if err := r.Activate(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("unexpected call order %v", calls)
	}
}

func TestRenderHeadConcatenatesAndJoinsErrors(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")

	r.OnHead(func(context.Context, RequestContext) (template.HTML, error) { return "<a>", nil })
	r.OnHead(func(context.Context, RequestContext) (template.HTML, error) { return "ignored", boom })
	r.OnHead(func(context.Context, RequestContext) (template.HTML, error) { return "<b>", nil })

	out, err := r.RenderHead(context.Background(), RequestContext{Host: "example.com"})
	if out != "<a><b>" {
		t.Errorf("output = %q", out)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected joined error, got %v", err)
	}
}

func TestRenderHeadWithoutSubscribers(t *testing.T) {
	out, err := NewRegistry().RenderHead(context.Background(), RequestContext{})
	if out != "" || err != nil {
		t.Fatalf("got %q, %v", out, err)
	}
}

func TestActionLinksFilterChain(t *testing.T) {
	r := NewRegistry()
	r.AddActionLinksFilter(func(links []ActionLink) []ActionLink {
		return append(links, ActionLink{Label: "Settings", URL: "/settings"})
	})
	r.AddActionLinksFilter(func(links []ActionLink) []ActionLink {
		return append(links, ActionLink{Label: "Docs", URL: "/docs"})
	})

	links := r.ActionLinks([]ActionLink{{Label: "Deactivate", URL: "/deactivate"}})
	if len(links) != 3 || links[1].Label != "Settings" || links[2].Label != "Docs" {
		t.Fatalf("unexpected links %+v", links)
	}
}

func TestAdminInitBuildsPage(t *testing.T) {
	r := NewRegistry()
	r.OnAdminInit(func(_ context.Context, _ RequestContext, page *SettingsPage) error {
		page.AddSection("integration", "Setup").AddField(Field{ID: "api_code"})
		return nil
	})
	r.OnAdminInit(func(_ context.Context, _ RequestContext, page *SettingsPage) error {
		page.AddSection("integration", "Setup").AddField(Field{ID: "api_domain"})
		return nil
	})

	page, err := r.AdminInit(context.Background(), RequestContext{}, "helpcrunch")
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Sections) != 1 || len(page.Sections[0].Fields) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
	if _, ok := page.Field("api_domain"); !ok {
		t.Errorf("api_domain field not found")
	}
}

func TestSectionPointerSurvivesLaterSections(t *testing.T) {
	page := &SettingsPage{Slug: "helpcrunch"}
	first := page.AddSection("integration", "Setup")
	for i := 0; i < 8; i++ {
		page.AddSection(fmt.Sprintf("extra-%d", i), "Extra")
	}
	first.AddField(Field{ID: "api_code"})

	if _, ok := page.Field("api_code"); !ok {
		t.Fatal("field added through an earlier section pointer was lost")
	}
	if page.AddSection("integration", "Setup") != first {
		t.Error("existing section should be returned")
	}
}
