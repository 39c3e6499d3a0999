// Package browser implements walker.Surface on top of a Chrome instance driven
// through the DevTools protocol with go-rod.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/stacklok/feedrelay/internal/walker"
)

const defaultElementTimeout = 10 * time.Second

// CookieSource returns the cookies replayed into every new session.
type CookieSource func() ([]*http.Cookie, error)

// Config describes how sessions are opened.
type Config struct {
	// FeedURL is the page every session starts on.
	FeedURL string
	// Selectors locate the named queries on the page.
	Selectors walker.Selectors
	// ElementTimeout bounds each single-element lookup.
	ElementTimeout time.Duration
	// Headless runs Chrome without a window.
	Headless bool
	// BrowserBin overrides the Chrome binary. When empty go-rod finds or
	// downloads one.
	BrowserBin string
	// RemoteURL attaches to an already running browser instead of launching.
	RemoteURL string
}

// Surface opens go-rod backed extraction sessions.
type Surface struct {
	cfg     Config
	cookies CookieSource
}

var _ walker.Surface = (*Surface)(nil)

// NewSurface creates a Surface. cookies is called once per session so an
// operator can refresh the cookie bundle without a restart.
func NewSurface(cfg Config, cookies CookieSource) *Surface {
	cfg.Selectors = cfg.Selectors.WithDefaults()
	if cfg.ElementTimeout <= 0 {
		cfg.ElementTimeout = defaultElementTimeout
	}
	return &Surface{cfg: cfg, cookies: cookies}
}

// Open starts (or attaches to) a browser, loads the feed, replays cookies and
// reloads so the feed renders as the authenticated user.
func (s *Surface) Open(ctx context.Context) (walker.Session, error) {
	jar, err := s.cookies()
	if err != nil {
		return nil, fmt.Errorf("failed to load cookies: %w", err)
	}

	controlURL, l, err := s.controlURL(ctx)
	if err != nil {
		return nil, err
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		cleanupLauncher(l)
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	sess := &session{browser: b, launcher: l, selectors: s.cfg.Selectors, timeout: s.cfg.ElementTimeout}
	if err := sess.load(s.cfg.FeedURL, jar); err != nil {
		if closeErr := sess.Close(); closeErr != nil {
			slog.Warn("Failed to close browser after load failure", "error", closeErr)
		}
		return nil, err
	}

	slog.Debug("Extraction session opened", "url", s.cfg.FeedURL, "cookies", len(jar))
	return sess, nil
}

func (s *Surface) controlURL(ctx context.Context) (string, *launcher.Launcher, error) {
	if s.cfg.RemoteURL != "" {
		u, err := launcher.ResolveURL(s.cfg.RemoteURL)
		if err != nil {
			return "", nil, fmt.Errorf("failed to resolve remote browser %s: %w", s.cfg.RemoteURL, err)
		}
		return u, nil, nil
	}

	l := launcher.New().Context(ctx).Headless(s.cfg.Headless)
	if s.cfg.BrowserBin != "" {
		l = l.Bin(s.cfg.BrowserBin)
	}
	u, err := l.Launch()
	if err != nil {
		return "", nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return u, l, nil
}

func cleanupLauncher(l *launcher.Launcher) {
	if l != nil {
		l.Cleanup()
	}
}

// CookieParams converts cookies into DevTools parameters. SameSite is forced
// to Lax because the exported bundles carry values the browser rejects when
// replayed cross-site.
func CookieParams(cookies []*http.Cookie) []*proto.NetworkCookieParam {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
			SameSite: proto.NetworkCookieSameSiteLax,
		}
		if !c.Expires.IsZero() {
			p.Expires = proto.TimeSinceEpoch(c.Expires.Unix())
		}
		params = append(params, p)
	}
	return params
}

// notFound maps a lookup timeout to walker.ErrShapeMismatch unless the walk
// itself was cancelled.
func notFound(ctx context.Context, err error, what string, sel walker.Selector) error {
	if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s (%s) not found", walker.ErrShapeMismatch, what, sel)
	}
	return fmt.Errorf("failed to query %s: %w", what, err)
}

// find waits up to timeout for the first element matching sel on p. The
// returned element is bound to ctx, not to the lookup timeout.
func find(ctx context.Context, p *rod.Page, timeout time.Duration, what string, sel walker.Selector) (walker.Element, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	timed := p.Context(lookupCtx)

	var (
		el  *rod.Element
		err error
	)
	if sel.IsXPath() {
		el, err = timed.ElementX(string(sel))
	} else {
		el, err = timed.Element(string(sel))
	}
	if err != nil {
		return nil, notFound(ctx, err, what, sel)
	}
	return &element{el: el.Context(ctx)}, nil
}
