// Package browser defines the element interaction contract the certificate workflow is
// written against, and a Chrome implementation of it driven through the DevTools protocol.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when an element does not reach its readiness condition in time
var ErrTimeout = errors.New("timed out waiting for element")

// By selects the strategy used to resolve a Locator
type By string

const (
	ByXPath By = "xpath"
	ByID    By = "id"
	ByCSS   By = "css"
)

// Locator identifies an element on the page
type Locator struct {
	By    By
	Value string
}

// XPath returns an XPath locator
func XPath(expr string) Locator { return Locator{By: ByXPath, Value: expr} }

// ID returns a locator matching the element id
func ID(id string) Locator { return Locator{By: ByID, Value: id} }

// CSS returns a CSS selector locator
func CSS(selector string) Locator { return Locator{By: ByCSS, Value: selector} }

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.By, l.Value)
}

// Condition is the readiness predicate an element must satisfy before it is used
type Condition int

const (
	// Present means attached to the DOM
	Present Condition = iota
	// Visible means rendered with a non-empty box
	Visible
	// Clickable means visible and not covered by another element
	Clickable
)

func (c Condition) String() string {
	switch c {
	case Present:
		return "present"
	case Visible:
		return "visible"
	case Clickable:
		return "clickable"
	default:
		return fmt.Sprintf("condition(%d)", int(c))
	}
}

// Element is a resolved page element
type Element interface {
	Click() error
	// Clear removes the current value of an input
	Clear() error
	SendKeys(text string) error
	// SetFiles injects local file paths into a file input
	SetFiles(paths ...string) error
	// IsSelected reports the checked state of a checkbox or radio
	IsSelected() (bool, error)
}

// Finder waits for elements to become ready
type Finder interface {
	WaitForElement(ctx context.Context, loc Locator, timeout time.Duration, cond Condition) (Element, error)
}

// Driver is the full surface the application needs from a browser session
type Driver interface {
	Finder
	Navigate(ctx context.Context, url string) error
	// Screenshot writes a PNG of the current viewport to path
	Screenshot(ctx context.Context, path string) error
}

// WaitAndClick waits for loc to become clickable and clicks it
func WaitAndClick(ctx context.Context, f Finder, loc Locator, timeout time.Duration) error {
	el, err := f.WaitForElement(ctx, loc, timeout, Clickable)
	if err != nil {
		return err
	}
	if err := el.Click(); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	return nil
}

// WaitAndSendKeys waits for loc to become visible and types text into it
func WaitAndSendKeys(ctx context.Context, f Finder, loc Locator, text string, timeout time.Duration) error {
	el, err := f.WaitForElement(ctx, loc, timeout, Visible)
	if err != nil {
		return err
	}
	if err := el.SendKeys(text); err != nil {
		return fmt.Errorf("send keys to %s: %w", loc, err)
	}
	return nil
}

// timeoutError wraps ErrTimeout with the element and condition that were not met
func timeoutError(loc Locator, cond Condition, timeout time.Duration) error {
	return fmt.Errorf("%w: %s not %s within %v", ErrTimeout, loc, cond, timeout)
}

// SettleFunc pauses the workflow; it must return early when ctx is done
type SettleFunc func(ctx context.Context, d time.Duration) error

// Settle blocks for d so the host application can finish asynchronous work triggered by
// the previous action. It returns early with ctx's error if ctx is done first.
func Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
