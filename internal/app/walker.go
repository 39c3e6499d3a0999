package app

import (
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/feedrelay/internal/config"
	"github.com/stacklok/feedrelay/internal/cookies"
	"github.com/stacklok/feedrelay/internal/walker"
	"github.com/stacklok/feedrelay/internal/walker/browser"
)

// NewFeedWalker builds the go-rod backed walker for the configured feed.
// The cookie bundle is re-read for every walk.
func NewFeedWalker(cfg *config.Config, tracer trace.Tracer) (*walker.Walker, error) {
	if err := cfg.ValidateFeed(); err != nil {
		return nil, err
	}

	rootURL, err := url.Parse(cfg.Feed.GetRootURL())
	if err != nil {
		return nil, fmt.Errorf("invalid feed root URL: %w", err)
	}

	cookiesFile := cfg.Feed.CookiesFile
	surface := browser.NewSurface(browser.Config{
		FeedURL:        cfg.Feed.URL,
		Selectors:      cfg.Feed.Selectors,
		ElementTimeout: cfg.Feed.GetElementTimeout(),
		Headless:       cfg.Feed.IsHeadless(),
		BrowserBin:     cfg.Feed.BrowserBin,
		RemoteURL:      cfg.Feed.RemoteBrowserURL,
	}, func() ([]*http.Cookie, error) {
		return cookies.LoadFile(cookiesFile)
	})

	var opts []walker.Option
	if tracer != nil {
		opts = append(opts, walker.WithTracer(tracer))
	}
	return walker.New(surface, rootURL, cfg.Feed.Selectors, opts...), nil
}
