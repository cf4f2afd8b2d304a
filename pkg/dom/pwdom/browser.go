// Package pwdom implements the document tree abstraction over a live
// Chromium page driven through Playwright.
package pwdom

import (
	"fmt"
	"io"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/autoapply/pkg/logging"
)

const (
	defaultViewportWidth  = 1280
	defaultViewportHeight = 900
	defaultTimeoutMs      = 30000
)

// Browser owns one Playwright browser, context and page for a run.
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	log     *logging.Logger
}

// Launch installs the Playwright driver if needed and starts a Chromium
// instance. The logger may be nil.
func Launch(headless bool, log *logging.Logger) (*Browser, error) {
	// Discard driver output so it cannot interleave with status output.
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return nil, fmt.Errorf("install playwright: %w", err)
	}
	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: defaultViewportWidth, Height: defaultViewportHeight},
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("create page: %w", err)
	}
	page.SetDefaultTimeout(defaultTimeoutMs)

	return &Browser{pw: pw, browser: browser, context: context, page: page, log: log}, nil
}

// Open navigates to a URL and returns the document bound to the page.
func (b *Browser) Open(url string) (*Document, error) {
	_, err := b.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return nil, fmt.Errorf("navigate to %q: %w", url, err)
	}
	if b.log != nil {
		b.log.Infof("opened %s", b.page.URL())
	}
	return NewDocument(b.page, b.log)
}

// Page exposes the underlying page for callers that need raw access,
// e.g. to capture page content for posting metadata.
func (b *Browser) Page() playwright.Page {
	return b.page
}

// Close tears down the page, context, browser and driver. Safe to call
// after partial failures.
func (b *Browser) Close() error {
	if b.page != nil {
		_ = b.page.Close()
	}
	if b.context != nil {
		_ = b.context.Close()
	}
	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			return fmt.Errorf("stop playwright: %w", err)
		}
	}
	return nil
}
