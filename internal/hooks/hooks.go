// Package hooks is a typed, ordered subscriber registry for the extension
// points the service exposes to plugins.
package hooks

import (
	"context"
	"errors"
	"html/template"
	"strings"
	"sync"

	"helpcrunch-live-chat/models"
)

// RequestContext is what page-level hooks know about the current request.
type RequestContext struct {
	Host    string
	Visitor models.VisitorIdentity
}

type (
	ActivateFunc     func(ctx context.Context) error
	AdminInitFunc    func(ctx context.Context, req RequestContext, page *SettingsPage) error
	HeadFunc         func(ctx context.Context, req RequestContext) (template.HTML, error)
	ActionLinkFilter func(links []ActionLink) []ActionLink
)

// ActionLink is one entry in a plugin's action-links row.
type ActionLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Registry holds subscribers per extension point and calls them in
// registration order. It is safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	activate    []ActivateFunc
	adminInit   []AdminInitFunc
	head        []HeadFunc
	actionLinks []ActionLinkFilter
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) OnActivate(fn ActivateFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activate = append(r.activate, fn)
}

func (r *Registry) OnAdminInit(fn AdminInitFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adminInit = append(r.adminInit, fn)
}

func (r *Registry) OnHead(fn HeadFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head = append(r.head, fn)
}

func (r *Registry) AddActionLinksFilter(fn ActionLinkFilter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actionLinks = append(r.actionLinks, fn)
}

// Activate runs activation hooks and stops at the first failure.
func (r *Registry) Activate(ctx context.Context) error {
	r.mu.RLock()
	subs := append([]ActivateFunc(nil), r.activate...)
	r.mu.RUnlock()

	for _, fn := range subs {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

// AdminInit builds the settings page for slug from all admin-init hooks.
func (r *Registry) AdminInit(ctx context.Context, req RequestContext, slug string) (*SettingsPage, error) {
	r.mu.RLock()
	subs := append([]AdminInitFunc(nil), r.adminInit...)
	r.mu.RUnlock()

	page := &SettingsPage{Slug: slug}
	for _, fn := range subs {
		if err := fn(ctx, req, page); err != nil {
			return nil, err
		}
	}
	return page, nil
}

// RenderHead concatenates head fragments. A failing subscriber contributes
// nothing; its error is joined into the result so the others still render.
func (r *Registry) RenderHead(ctx context.Context, req RequestContext) (template.HTML, error) {
	r.mu.RLock()
	subs := append([]HeadFunc(nil), r.head...)
	r.mu.RUnlock()

	var (
		b    strings.Builder
		errs []error
	)
	for _, fn := range subs {
		fragment, err := fn(ctx, req)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		b.WriteString(string(fragment))
	}
	return template.HTML(b.String()), errors.Join(errs...)
}

// ActionLinks passes links through every filter in order.
func (r *Registry) ActionLinks(links []ActionLink) []ActionLink {
	r.mu.RLock()
	subs := append([]ActionLinkFilter(nil), r.actionLinks...)
	r.mu.RUnlock()

	for _, fn := range subs {
		links = fn(links)
	}
	return links
}
