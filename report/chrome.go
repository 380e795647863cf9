package report

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"undervalued-homes/utils"
)

// ChromeRenderer prints the HTML report to PDF with headless Chrome.
type ChromeRenderer struct {
	chromeBin string
	timeout   time.Duration
	logger    *utils.Logger
}

// NewChromeRenderer creates a ChromeRenderer. An empty chromeBin is resolved
// from PATH and the usual install locations.
func NewChromeRenderer(chromeBin string, timeout time.Duration, logger *utils.Logger) *ChromeRenderer {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChromeRenderer{chromeBin: chromeBin, timeout: timeout, logger: logger}
}

// RenderPDF loads src.HTML into a fresh browser tab and prints it.
func (c *ChromeRenderer) RenderPDF(ctx context.Context, src *Source) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if c.chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(c.chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, c.timeout)
	defer cancelRun()

	dataURL := "data:text/html;charset=utf-8;base64," + base64.StdEncoding.EncodeToString(src.HTML)

	var pdf []byte
	err := chromedp.Run(runCtx,
		chromedp.Navigate(dataURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithLandscape(true).
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("report: chrome print to pdf: %w", err)
	}

	c.logger.Debug("[report] chrome produced %d bytes using %q", len(pdf), c.chromeBin)
	return pdf, nil
}

func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
