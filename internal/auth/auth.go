// Package auth signs in to the host application before the batch starts
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Wgledston/certificate-manager/internal/browser"
	"github.com/Wgledston/certificate-manager/internal/config"
	"github.com/Wgledston/certificate-manager/internal/logger"
)

// ErrLoginFailed is returned when the post-login page never shows up
var ErrLoginFailed = errors.New("login failed")

// Locators identifies the login form and an element only shown to authenticated users
type Locators struct {
	Username browser.Locator
	Password browser.Locator
	Submit   browser.Locator
	Ready    browser.Locator
}

// LocatorsFromConfig builds the login form locators from auth.* selectors
func LocatorsFromConfig(cfg *config.Config, ready browser.Locator) Locators {
	return Locators{
		Username: browser.CSS(cfg.Auth.UsernameSelector),
		Password: browser.CSS(cfg.Auth.PasswordSelector),
		Submit:   browser.CSS(cfg.Auth.SubmitSelector),
		Ready:    ready,
	}
}

// Authenticator performs the login flow
type Authenticator struct {
	driver   browser.Driver
	locators Locators
	timeouts config.Timeouts
}

// New creates an Authenticator
func New(driver browser.Driver, locators Locators, timeouts config.Timeouts) *Authenticator {
	return &Authenticator{driver: driver, locators: locators, timeouts: timeouts}
}

// Login opens url, submits the credentials and waits for the authenticated landing page
func (a *Authenticator) Login(ctx context.Context, url, username, password string) error {
	logger.Info().Str("url", url).Str("username", username).Msg("Authenticating")

	if err := a.driver.Navigate(ctx, url); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}

	if err := a.fill(ctx, a.locators.Username, username, a.timeouts.Long); err != nil {
		return fmt.Errorf("username field: %w", err)
	}
	if err := a.fill(ctx, a.locators.Password, password, a.timeouts.Default); err != nil {
		return fmt.Errorf("password field: %w", err)
	}
	if err := browser.WaitAndClick(ctx, a.driver, a.locators.Submit, a.timeouts.Default); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}

	if _, err := a.driver.WaitForElement(ctx, a.locators.Ready, a.timeouts.Long, browser.Visible); err != nil {
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	logger.Info().Msg("Authenticated")
	return nil
}

func (a *Authenticator) fill(ctx context.Context, loc browser.Locator, text string, timeout time.Duration) error {
	el, err := a.driver.WaitForElement(ctx, loc, timeout, browser.Visible)
	if err != nil {
		return err
	}
	if err := el.Clear(); err != nil {
		return err
	}
	return el.SendKeys(text)
}
