package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Wgledston/certificate-manager/internal/config"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// Session owns one Chrome instance and the single page the workflow drives
type Session struct {
	launcher   *launcher.Launcher
	browser    *rod.Browser
	page       *rod.Page
	navTimeout time.Duration
	closed     bool
}

// Launch starts Chrome (or attaches to browser.debugger_url) and opens a blank page
// sized to browser.window_size.
func Launch(ctx context.Context, cfg *config.Config) (*Session, error) {
	width, height, err := cfg.WindowSize()
	if err != nil {
		return nil, err
	}

	s := &Session{navTimeout: cfg.Timeouts.Long}

	controlURL := cfg.Browser.DebuggerURL
	if controlURL == "" {
		l := launcher.New().
			Context(ctx).
			Headless(cfg.Browser.Headless).
			Set(flags.Flag("window-size"), strconv.Itoa(width)+","+strconv.Itoa(height))
		if cfg.Browser.ChromeBinary != "" {
			l = l.Bin(cfg.Browser.ChromeBinary)
		}
		if cfg.Browser.BlockImages {
			l = l.Set(flags.Flag("blink-settings"), "imagesEnabled=false")
		}
		url, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		s.launcher = l
		controlURL = url
	}

	s.browser = rod.New().ControlURL(controlURL).Context(ctx)
	if err := s.browser.Connect(); err != nil {
		s.browser = nil
		_ = s.Close()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	s.page = page

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	return s, nil
}

// Close releases the page, the browser connection and any launched process.
// It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
	return errors.Join(errs...)
}

// Navigate loads url and waits for the load event
func (s *Session) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx).Timeout(s.navTimeout)
	defer page.CancelTimeout()

	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

// Screenshot writes the current viewport as PNG
func (s *Session) Screenshot(ctx context.Context, path string) error {
	data, err := s.page.Context(ctx).Screenshot(false, nil)
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create screenshot directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// WaitForElement polls until loc resolves and satisfies cond, or timeout elapses
func (s *Session) WaitForElement(ctx context.Context, loc Locator, timeout time.Duration, cond Condition) (Element, error) {
	page := s.page.Context(ctx).Timeout(timeout)
	defer page.CancelTimeout()

	el, err := find(page, loc)
	if err == nil {
		switch cond {
		case Visible:
			err = el.WaitVisible()
		case Clickable:
			_, err = el.WaitInteractable()
		}
	}
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, timeoutError(loc, cond, timeout)
		}
		return nil, fmt.Errorf("wait for %s to be %s: %w", loc, cond, err)
	}

	// detach from the timeout so later actions are bounded only by ctx
	return &rodElement{el: el.Context(ctx)}, nil
}

func find(page *rod.Page, loc Locator) (*rod.Element, error) {
	switch loc.By {
	case ByXPath:
		return page.ElementX(loc.Value)
	case ByID:
		return page.Element(fmt.Sprintf("[id=%q]", loc.Value))
	case ByCSS:
		return page.Element(loc.Value)
	default:
		return nil, fmt.Errorf("unsupported locator strategy %q", loc.By)
	}
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Clear() error {
	if err := e.el.SelectAllText(); err != nil {
		return err
	}
	return e.el.Type(input.Backspace)
}

func (e *rodElement) SendKeys(text string) error {
	return e.el.Input(text)
}

func (e *rodElement) SetFiles(paths ...string) error {
	return e.el.SetFiles(paths)
}

func (e *rodElement) IsSelected() (bool, error) {
	checked, err := e.el.Property("checked")
	if err != nil {
		return false, err
	}
	return checked.Bool(), nil
}

var _ Driver = (*Session)(nil)
