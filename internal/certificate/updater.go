// Package certificate replaces the digital certificate bound to the company currently
// listed in the host application's companies table.
package certificate

import (
	"context"
	"fmt"

	"github.com/Wgledston/certificate-manager/internal/browser"
	"github.com/Wgledston/certificate-manager/internal/config"
	"github.com/Wgledston/certificate-manager/internal/logger"
)

// Host application elements touched by the update
var (
	selectAllCheckbox = browser.XPath(`//*[@id="def-table"]/thead/tr[2]/th[1]/label/input`)
	actionsMenuButton = browser.XPath(`//*[@id="actions"]/button`)
	editCertsAction   = browser.ID("edit-certs")
	uploadInput       = browser.XPath(`//*[@id="fine-uploader"]/div/div[2]/input`)
	passwordField     = browser.ID("Certificate_Password")
	confirmButton     = browser.ID("confirm-edit-certs")
	dialogCloseButton = browser.XPath(`//*[@id="boxEditCertClient"]/div/div/div[1]/button`)
)

// State is one step of the update sequence
type State int

const (
	StateSelectAll State = iota
	StateOpenActionsMenu
	StateOpenEditCertificatesDialog
	StateUploadFile
	StateFillPassword
	StateConfirm
	StateCloseDialog
	StateDone
)

var stateNames = [...]string{
	StateSelectAll:                  "SelectAll",
	StateOpenActionsMenu:            "OpenActionsMenu",
	StateOpenEditCertificatesDialog: "OpenEditCertificatesDialog",
	StateUploadFile:                 "UploadFile",
	StateFillPassword:               "FillPassword",
	StateConfirm:                    "Confirm",
	StateCloseDialog:                "CloseDialog",
	StateDone:                       "Done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// UpdateError reports which step aborted the update of which company
type UpdateError struct {
	Identifier string
	State      State
	Err        error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("certificate update failed for %s at %s: %v", e.Identifier, e.State, e.Err)
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}

// Updater drives the edit-certificates dialog. It is not idempotent: every call repeats
// the whole select/upload/confirm sequence.
type Updater struct {
	finder   browser.Finder
	timeouts config.Timeouts
	settle   browser.SettleFunc
}

// Option customizes an Updater
type Option func(*Updater)

// WithSettle replaces the settling pause, mainly for tests
func WithSettle(fn browser.SettleFunc) Option {
	return func(u *Updater) {
		u.settle = fn
	}
}

// NewUpdater creates an Updater acting on the page behind finder
func NewUpdater(finder browser.Finder, timeouts config.Timeouts, opts ...Option) *Updater {
	u := &Updater{
		finder:   finder,
		timeouts: timeouts,
		settle:   browser.Settle,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Update selects the listed company, uploads certificatePath and confirms it with password.
// Any failure up to the confirm click aborts the update and is returned as *UpdateError.
func (u *Updater) Update(ctx context.Context, identifier, certificatePath, password string) error {
	logger.Info().Str("identifier", identifier).Msg("Updating certificate")

	steps := []struct {
		state State
		run   func(context.Context) error
	}{
		{StateSelectAll, u.selectAll},
		{StateOpenActionsMenu, u.openActionsMenu},
		{StateOpenEditCertificatesDialog, u.openEditCertificatesDialog},
		{StateUploadFile, func(ctx context.Context) error { return u.uploadFile(ctx, certificatePath) }},
		{StateFillPassword, func(ctx context.Context) error { return u.fillPassword(ctx, password) }},
		{StateConfirm, u.confirm},
	}

	for _, step := range steps {
		logger.Debug().Str("identifier", identifier).Str("state", step.state.String()).Msg("Entering state")
		if err := step.run(ctx); err != nil {
			err = &UpdateError{Identifier: identifier, State: step.state, Err: err}
			logger.Error().Err(err).Str("identifier", identifier).Msg("Failed to update certificate")
			return err
		}
	}

	// the dialog usually closes itself on confirm
	bestEffort("close edit certificates dialog", func() error { return u.closeDialog(ctx) })

	logger.Info().Str("identifier", identifier).Msg("Certificate updated successfully")
	return nil
}

// selectAll forces a change event: a checked box is unchecked and checked again
func (u *Updater) selectAll(ctx context.Context) error {
	checkbox, err := u.finder.WaitForElement(ctx, selectAllCheckbox, u.timeouts.Long, browser.Clickable)
	if err != nil {
		return err
	}

	selected, err := checkbox.IsSelected()
	if err != nil {
		return fmt.Errorf("read select-all state: %w", err)
	}
	if selected {
		if err := checkbox.Click(); err != nil {
			return fmt.Errorf("uncheck select-all: %w", err)
		}
		if err := u.settle(ctx, u.timeouts.StepSettle); err != nil {
			return err
		}
	}

	if err := checkbox.Click(); err != nil {
		return fmt.Errorf("check select-all: %w", err)
	}
	return nil
}

func (u *Updater) openActionsMenu(ctx context.Context) error {
	return browser.WaitAndClick(ctx, u.finder, actionsMenuButton, u.timeouts.Default)
}

func (u *Updater) openEditCertificatesDialog(ctx context.Context) error {
	if err := browser.WaitAndClick(ctx, u.finder, editCertsAction, u.timeouts.Default); err != nil {
		return err
	}
	return u.settle(ctx, u.timeouts.StepSettle)
}

func (u *Updater) uploadFile(ctx context.Context, certificatePath string) error {
	err := func() error {
		input, err := u.finder.WaitForElement(ctx, uploadInput, u.timeouts.Long, browser.Present)
		if err != nil {
			return err
		}
		if err := input.SetFiles(certificatePath); err != nil {
			return fmt.Errorf("inject certificate file: %w", err)
		}
		return nil
	}()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to upload certificate")
		bestEffort("close dialog after upload failure", func() error { return u.closeDialog(ctx) })
		return err
	}
	return u.settle(ctx, u.timeouts.UploadSettle)
}

// fillPassword waits for visibility and interactivity separately; the field renders
// before it accepts input.
func (u *Updater) fillPassword(ctx context.Context, password string) error {
	field, err := u.finder.WaitForElement(ctx, passwordField, u.timeouts.Long, browser.Visible)
	if err != nil {
		return err
	}
	if _, err := u.finder.WaitForElement(ctx, passwordField, u.timeouts.Default, browser.Clickable); err != nil {
		return err
	}

	if err := field.Clear(); err != nil {
		return fmt.Errorf("clear password field: %w", err)
	}
	if err := field.SendKeys(password); err != nil {
		return fmt.Errorf("enter password: %w", err)
	}
	return u.settle(ctx, u.timeouts.PasswordSettle)
}

func (u *Updater) confirm(ctx context.Context) error {
	return browser.WaitAndClick(ctx, u.finder, confirmButton, u.timeouts.Default)
}

func (u *Updater) closeDialog(ctx context.Context) error {
	return browser.WaitAndClick(ctx, u.finder, dialogCloseButton, u.timeouts.Short)
}

// bestEffort runs fn and only debug-logs a failure, so cleanup never masks the error that led to it
func bestEffort(action string, fn func() error) {
	if err := fn(); err != nil {
		logger.Debug().Err(err).Str("action", action).Msg("Best-effort action failed")
	}
}
