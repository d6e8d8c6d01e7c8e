// Package browsertest provides a scripted browser.Driver that records every interaction,
// for testing UI workflows without Chrome.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Wgledston/certificate-manager/internal/browser"
)

// Operation names recorded by the fake
const (
	OpWait       = "wait"
	OpClick      = "click"
	OpClear      = "clear"
	OpKeys       = "keys"
	OpFiles      = "files"
	OpSelected   = "selected"
	OpNavigate   = "navigate"
	OpScreenshot = "screenshot"
)

// Call is one recorded interaction
type Call struct {
	Op        string
	Condition browser.Condition
	Locator   browser.Locator
	Arg       string
}

func (c Call) String() string {
	switch c.Op {
	case OpWait:
		return fmt.Sprintf("wait:%s %s", c.Condition, c.Locator)
	case OpNavigate, OpScreenshot:
		return fmt.Sprintf("%s %s", c.Op, c.Arg)
	case OpKeys, OpFiles:
		return fmt.Sprintf("%s %s %s", c.Op, c.Locator, c.Arg)
	default:
		return fmt.Sprintf("%s %s", c.Op, c.Locator)
	}
}

// Fake is a scripted browser.Driver. Every element is present and ready unless told
// otherwise through Missing or FailOn.
type Fake struct {
	calls    []Call
	selected map[string]bool
	failures map[string]error
	missing  map[string]bool
	// OnWait, when set, runs before every wait and may return an error for it
	OnWait func(loc browser.Locator, cond browser.Condition) error
}

// New returns an empty Fake
func New() *Fake {
	return &Fake{
		selected: make(map[string]bool),
		failures: make(map[string]error),
		missing:  make(map[string]bool),
	}
}

// Missing makes every wait on loc time out
func (f *Fake) Missing(loc browser.Locator) *Fake {
	f.missing[loc.String()] = true
	return f
}

// Found undoes Missing
func (f *Fake) Found(loc browser.Locator) *Fake {
	delete(f.missing, loc.String())
	return f
}

// Selected sets the checked state reported for loc
func (f *Fake) Selected(loc browser.Locator, checked bool) *Fake {
	f.selected[loc.String()] = checked
	return f
}

// FailOn makes op on loc return err. op is one of the Op constants, or
// "wait:<condition>" to fail a single readiness condition.
func (f *Fake) FailOn(op string, loc browser.Locator, err error) *Fake {
	f.failures[op+" "+loc.String()] = err
	return f
}

// Calls returns the recorded interactions in order
func (f *Fake) Calls() []Call {
	return append([]Call(nil), f.calls...)
}

// Trace returns the recorded interactions as strings
func (f *Fake) Trace() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.String()
	}
	return out
}

// Count returns how often op was recorded against loc
func (f *Fake) Count(op string, loc browser.Locator) int {
	n := 0
	for _, c := range f.calls {
		if c.Op == op && c.Locator == loc {
			n++
		}
	}
	return n
}

// CountOp returns how often op was recorded against any locator
func (f *Fake) CountOp(op string) int {
	n := 0
	for _, c := range f.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls but keeps the script
func (f *Fake) Reset() {
	f.calls = nil
}

// WaitForElement implements browser.Finder
func (f *Fake) WaitForElement(ctx context.Context, loc browser.Locator, timeout time.Duration, cond browser.Condition) (browser.Element, error) {
	f.calls = append(f.calls, Call{Op: OpWait, Condition: cond, Locator: loc})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.OnWait != nil {
		if err := f.OnWait(loc, cond); err != nil {
			return nil, err
		}
	}
	if f.missing[loc.String()] {
		return nil, fmt.Errorf("%w: %s not %s within %v", browser.ErrTimeout, loc, cond, timeout)
	}
	if err := f.failure(OpWait+":"+cond.String(), loc); err != nil {
		return nil, err
	}
	if err := f.failure(OpWait, loc); err != nil {
		return nil, err
	}
	return &element{fake: f, loc: loc}, nil
}

// Navigate implements browser.Driver
func (f *Fake) Navigate(_ context.Context, url string) error {
	f.calls = append(f.calls, Call{Op: OpNavigate, Arg: url})
	return f.failure(OpNavigate, browser.Locator{})
}

// Screenshot implements browser.Driver
func (f *Fake) Screenshot(_ context.Context, path string) error {
	f.calls = append(f.calls, Call{Op: OpScreenshot, Arg: path})
	return f.failure(OpScreenshot, browser.Locator{})
}

func (f *Fake) failure(op string, loc browser.Locator) error {
	return f.failures[op+" "+loc.String()]
}

func (f *Fake) record(op string, loc browser.Locator, arg string) error {
	f.calls = append(f.calls, Call{Op: op, Locator: loc, Arg: arg})
	return f.failure(op, loc)
}

type element struct {
	fake *Fake
	loc  browser.Locator
}

func (e *element) Click() error {
	if err := e.fake.record(OpClick, e.loc, ""); err != nil {
		return err
	}
	key := e.loc.String()
	e.fake.selected[key] = !e.fake.selected[key]
	return nil
}

func (e *element) Clear() error {
	return e.fake.record(OpClear, e.loc, "")
}

func (e *element) SendKeys(text string) error {
	return e.fake.record(OpKeys, e.loc, text)
}

func (e *element) SetFiles(paths ...string) error {
	return e.fake.record(OpFiles, e.loc, strings.Join(paths, ","))
}

func (e *element) IsSelected() (bool, error) {
	if err := e.fake.record(OpSelected, e.loc, ""); err != nil {
		return false, err
	}
	return e.fake.selected[e.loc.String()], nil
}

var _ browser.Driver = (*Fake)(nil)
