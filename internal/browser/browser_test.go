package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubElement struct {
	clicks   int
	keys     []string
	clickErr error
}

func (e *stubElement) Click() error {
	e.clicks++
	return e.clickErr
}
func (e *stubElement) Clear() error { return nil }
func (e *stubElement) SendKeys(text string) error {
	e.keys = append(e.keys, text)
	return nil
}
func (e *stubElement) SetFiles(...string) error  { return nil }
func (e *stubElement) IsSelected() (bool, error) { return false, nil }

type stubFinder struct {
	el    *stubElement
	err   error
	conds []Condition
}

func (f *stubFinder) WaitForElement(_ context.Context, _ Locator, _ time.Duration, cond Condition) (Element, error) {
	f.conds = append(f.conds, cond)
	if f.err != nil {
		return nil, f.err
	}
	return f.el, nil
}

func TestWaitAndClick(t *testing.T) {
	el := &stubElement{}
	f := &stubFinder{el: el}

	require.NoError(t, WaitAndClick(context.Background(), f, ID("confirm-edit-certs"), time.Second))
	assert.Equal(t, 1, el.clicks)
	assert.Equal(t, []Condition{Clickable}, f.conds)
}

func TestWaitAndClickErrors(t *testing.T) {
	timeout := timeoutError(ID("x"), Clickable, time.Second)
	err := WaitAndClick(context.Background(), &stubFinder{err: timeout}, ID("x"), time.Second)
	assert.ErrorIs(t, err, ErrTimeout)

	clickErr := errors.New("detached node")
	err = WaitAndClick(context.Background(), &stubFinder{el: &stubElement{clickErr: clickErr}}, ID("x"), time.Second)
	assert.ErrorIs(t, err, clickErr)
	assert.Contains(t, err.Error(), "id=x")
}

func TestWaitAndSendKeys(t *testing.T) {
	el := &stubElement{}
	f := &stubFinder{el: el}

	loc := XPath(`//*[@placeholder="Nome/Insc. Federal"]`)
	require.NoError(t, WaitAndSendKeys(context.Background(), f, loc, "12.345.678/0001-95", time.Second))
	assert.Equal(t, []string{"12.345.678/0001-95"}, el.keys)
	assert.Equal(t, []Condition{Visible}, f.conds)
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "present", Present.String())
	assert.Equal(t, "visible", Visible.String())
	assert.Equal(t, "clickable", Clickable.String())
	assert.Equal(t, "condition(9)", Condition(9).String())

	assert.Equal(t, "css=#actions button", CSS("#actions button").String())

	err := timeoutError(ID("Certificate_Password"), Visible, 30*time.Second)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "id=Certificate_Password not visible within 30s")
}

func TestSettle(t *testing.T) {
	assert.NoError(t, Settle(context.Background(), 0))
	assert.NoError(t, Settle(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Settle(ctx, time.Hour), context.Canceled)
}
