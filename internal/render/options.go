package render

import (
	"time"

	"git.home.luguber.info/inful/pomosite/internal/site"
)

// PageHook is called after a page has been written.
type PageHook func(item site.Item, languageTag, outputPath string, elapsed time.Duration)

// Option configures an Environment.
type Option func(*Environment)

// WithPageHook registers a hook called for every written page.
func WithPageHook(h PageHook) Option {
	return func(e *Environment) {
		e.onPage = h
	}
}
