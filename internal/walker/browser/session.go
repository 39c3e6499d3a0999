package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/stacklok/feedrelay/internal/walker"
)

type session struct {
	browser   *rod.Browser
	launcher  *launcher.Launcher
	page      *rod.Page
	selectors walker.Selectors
	timeout   time.Duration
}

var _ walker.Session = (*session)(nil)

func (s *session) load(feedURL string, jar []*http.Cookie) error {
	page, err := s.browser.Page(proto.TargetCreateTarget{URL: feedURL})
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", feedURL, err)
	}
	s.page = page

	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed to load %s: %w", feedURL, err)
	}
	if err := page.SetCookies(CookieParams(jar)); err != nil {
		return fmt.Errorf("failed to set cookies: %w", err)
	}
	if err := page.Reload(); err != nil {
		return fmt.Errorf("failed to reload %s: %w", feedURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed to load %s after reload: %w", feedURL, err)
	}
	return nil
}

// PostActions waits for at least one affordance and then returns all of them.
// An empty feed is not an error.
func (s *session) PostActions(ctx context.Context) ([]walker.Element, error) {
	sel := s.selectors.PostActions
	if _, err := find(ctx, s.page, s.timeout, "post actions", sel); err != nil {
		if errors.Is(err, walker.ErrShapeMismatch) {
			return nil, nil
		}
		return nil, err
	}

	var (
		els rod.Elements
		err error
	)
	page := s.page.Context(ctx)
	if sel.IsXPath() {
		els, err = page.ElementsX(string(sel))
	} else {
		els, err = page.Elements(string(sel))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query post actions: %w", err)
	}

	out := make([]walker.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &element{el: el})
	}
	return out, nil
}

func (s *session) EmbedControl(ctx context.Context) (walker.Element, error) {
	return find(ctx, s.page, s.timeout, "embed control", s.selectors.EmbedControl)
}

func (s *session) EnterEmbed(ctx context.Context) (walker.Frame, error) {
	found, err := find(ctx, s.page, s.timeout, "embedded frame", s.selectors.EmbeddedFrame)
	if err != nil {
		return nil, err
	}
	framePage, err := found.(*element).el.Context(ctx).Frame()
	if err != nil {
		return nil, fmt.Errorf("failed to enter embedded frame: %w", err)
	}
	return &frame{page: framePage, selectors: s.selectors, timeout: s.timeout}, nil
}

func (s *session) DismissControl(ctx context.Context) (walker.Element, error) {
	return find(ctx, s.page, s.timeout, "dismiss control", s.selectors.DismissControl)
}

// Close shuts the browser down and removes a launched browser's profile.
func (s *session) Close() error {
	err := s.browser.Close()
	cleanupLauncher(s.launcher)
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

type frame struct {
	page      *rod.Page
	selectors walker.Selectors
	timeout   time.Duration
}

func (f *frame) PostBody(ctx context.Context) (walker.Element, error) {
	return find(ctx, f.page, f.timeout, "post body", f.selectors.PostBody)
}

func (f *frame) Timestamp(ctx context.Context) (walker.Element, error) {
	return find(ctx, f.page, f.timeout, "timestamp", f.selectors.Timestamp)
}

func (f *frame) PermalinkAnchor(ctx context.Context) (walker.Element, error) {
	return find(ctx, f.page, f.timeout, "permalink anchor", f.selectors.PermalinkAnchor)
}

// Exit is a no-op: frame lookups go through their own page handle, so the
// top-level document is never left.
func (*frame) Exit(context.Context) error {
	return nil
}

type element struct {
	el *rod.Element
}

// Interactable reports false for elements that are hidden, covered or
// detached; only a cancelled context is an error.
func (e *element) Interactable(ctx context.Context) (bool, error) {
	if _, err := e.el.Context(ctx).Interactable(); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	return true, nil
}

func (e *element) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

func (e *element) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}
