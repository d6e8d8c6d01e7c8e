// Package company locates companies in the host application's companies table
package company

import (
	"context"
	"errors"
	"fmt"

	"github.com/Wgledston/certificate-manager/internal/browser"
	"github.com/Wgledston/certificate-manager/internal/config"
	"github.com/Wgledston/certificate-manager/internal/logger"
)

var (
	// SearchField is the companies filter box; its presence also proves an authenticated session
	SearchField = browser.XPath(`//*[@placeholder="Nome/Insc. Federal"]`)
	// ResultRow is the link in the first row of the filtered table
	ResultRow = browser.XPath(`//*[@id="def-table"]/tbody/tr[1]/td[7]/a/span`)
)

// Searcher filters the companies table by identifier
type Searcher struct {
	finder   browser.Finder
	timeouts config.Timeouts
	settle   browser.SettleFunc
}

// Option customizes a Searcher
type Option func(*Searcher)

// WithSettle replaces the settling pause, mainly for tests
func WithSettle(fn browser.SettleFunc) Option {
	return func(s *Searcher) {
		s.settle = fn
	}
}

// NewSearcher creates a Searcher acting on the page behind finder
func NewSearcher(finder browser.Finder, timeouts config.Timeouts, opts ...Option) *Searcher {
	s := &Searcher{
		finder:   finder,
		timeouts: timeouts,
		settle:   browser.Settle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search types identifier into the filter and reports whether a result row appeared.
// A company the table hides for business reasons (e.g. MEI) is indistinguishable from a
// missing one and also yields false. Only a result row that never appears within the
// timeout means not found; any other failure while waiting for it, or while driving the
// search field, is returned as an error so the row is reported as failed.
func (s *Searcher) Search(ctx context.Context, identifier string) (bool, error) {
	field, err := s.finder.WaitForElement(ctx, SearchField, s.timeouts.Default, browser.Visible)
	if err != nil {
		return false, fmt.Errorf("search field: %w", err)
	}
	// the filter keeps the previous query otherwise
	if err := field.Clear(); err != nil {
		return false, fmt.Errorf("clear search field: %w", err)
	}
	if err := field.SendKeys(identifier); err != nil {
		return false, fmt.Errorf("type into search field: %w", err)
	}

	if err := s.settle(ctx, s.timeouts.SearchSettle); err != nil {
		return false, err
	}

	if _, err := s.finder.WaitForElement(ctx, ResultRow, s.timeouts.Default, browser.Present); err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			logger.Debug().Str("identifier", identifier).Msg("No result row")
			return false, nil
		}
		return false, fmt.Errorf("wait for result row: %w", err)
	}
	return true, nil
}
