// Package browser drives a headless Chrome session against the newspaper
// site: authenticate, detect CAPTCHA walls, locate the day's edition and
// download its PDF. Element discovery uses ordered selector heuristics over
// DOM snapshots because the site's markup is a configuration concern, not
// something known at compile time.
package browser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	cdbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/lfpaiva/jornal-agent/internal/config"
	"github.com/lfpaiva/jornal-agent/internal/retry"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Downloader fetches the daily edition PDF and returns its local path.
type Downloader interface {
	Download(ctx context.Context) (string, error)
}

// New returns the downloader implementation for the run mode.
func New(cfg *config.RunConfig, log *slog.Logger) Downloader {
	if cfg.Simulate {
		return &simulated{cfg: cfg, log: log}
	}
	c := &Chrome{cfg: cfg, log: log, policy: retry.Default(IsRetryable)}
	c.policy.MaxAttempts = cfg.MaxRetries
	c.attempt = c.loginAndDownload
	return c
}

// PDFFilename builds the deterministic date-stamped edition filename.
func PDFFilename(t time.Time) string {
	return fmt.Sprintf("diario-%s.pdf", t.Format("20060102"))
}

// Chrome is the real downloader. One Download call owns one browser
// session; the whole login+download sequence is retried as a unit.
type Chrome struct {
	cfg    *config.RunConfig
	log    *slog.Logger
	policy retry.Policy

	// attempt runs one full login+download pass. Swappable in tests.
	attempt func(ctx context.Context) (string, error)
}

// Download runs the acquisition sequence under the bounded retry policy.
// CaptchaRequiredError is non-retryable and propagates on the first attempt.
func (c *Chrome) Download(ctx context.Context) (string, error) {
	var path string
	err := c.policy.Do(ctx, c.log, "download", func() error {
		p, err := c.attempt(ctx)
		if err != nil {
			return err
		}
		path = p
		return nil
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// loginAndDownload performs one full pass: start a browser, log in,
// locate the PDF and persist it.
func (c *Chrome) loginAndDownload(ctx context.Context) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	c.log.Info("starting headless browser session")

	if err := c.login(taskCtx); err != nil {
		return "", err
	}
	path, err := c.locateAndFetchPDF(taskCtx)
	if err != nil {
		return "", err
	}
	c.log.Info("browser session finished", "pdf", path)
	return path, nil
}

// login navigates to the login page and tries each selector triple in turn.
// Success is determined by the URL no longer containing "login" and the
// absence of known error markers.
func (c *Chrome) login(taskCtx context.Context) error {
	c.log.Info("opening login page", "url", c.cfg.JornalLoginURL)

	doc, err := c.navigate(taskCtx, c.cfg.JornalLoginURL)
	if err != nil {
		return &LoginError{Reason: "load login page", Err: err}
	}
	if ind := detectCaptcha(doc); ind != "" {
		return &CaptchaRequiredError{Indicator: ind}
	}

	submitted := false
	for _, triple := range loginSelectors {
		if submitted {
			// A failed submission mutates the page; match the next
			// triple against the live DOM, not the stale snapshot.
			fresh, err := c.snapshot(taskCtx)
			if err != nil {
				return &LoginError{Reason: "refresh page snapshot", Err: err}
			}
			doc = fresh
			submitted = false
		}
		if !matchTriple(doc, triple) {
			continue
		}
		c.log.Debug("trying login selectors", "user", triple.User, "submit", triple.Submit)

		opCtx, cancel := context.WithTimeout(taskCtx, c.cfg.Timeout)
		err := chromedp.Run(opCtx,
			chromedp.SendKeys(triple.User, c.cfg.JornalUser, chromedp.ByQuery),
			chromedp.SendKeys(triple.Pass, c.cfg.JornalPass, chromedp.ByQuery),
			chromedp.Click(triple.Submit, chromedp.ByQuery),
			chromedp.WaitReady("body", chromedp.ByQuery),
		)
		cancel()
		submitted = true
		if err != nil {
			c.log.Debug("selector triple did not submit", "user", triple.User, "error", err)
			continue
		}

		var loc string
		if err := chromedp.Run(taskCtx, chromedp.Location(&loc)); err != nil {
			continue
		}
		if !strings.Contains(strings.ToLower(loc), "login") {
			c.log.Info("login successful", "url", loc)
			return nil
		}

		after, err := c.snapshot(taskCtx)
		if err != nil {
			continue
		}
		for _, errSel := range loginErrorSelectors {
			if sel := after.Find(errSel).First(); sel.Length() > 0 {
				msg := strings.TrimSpace(sel.Text())
				return &LoginError{Reason: "site rejected credentials: " + msg}
			}
		}
	}

	return &LoginError{Reason: "no login form selectors matched the page"}
}

// locateAndFetchPDF navigates to the edition page, re-checks for CAPTCHA,
// tries the ordered download selectors, falls back to a full link scan,
// and persists the first match.
func (c *Chrome) locateAndFetchPDF(taskCtx context.Context) (string, error) {
	c.log.Info("opening edition page", "url", c.cfg.JornalPDFURL)

	doc, err := c.navigate(taskCtx, c.cfg.JornalPDFURL)
	if err != nil {
		return "", &DownloadError{Err: fmt.Errorf("load edition page: %w", err)}
	}
	if ind := detectCaptcha(doc); ind != "" {
		return "", &CaptchaRequiredError{Indicator: ind}
	}

	target := filepath.Join(c.cfg.DataDir, PDFFilename(time.Now()))

	for _, sel := range downloadSelectors {
		match := doc.Find(sel).First()
		if match.Length() == 0 {
			continue
		}
		c.log.Debug("trying download selector", "selector", sel)
		if err := c.fetchMatch(taskCtx, match, sel, target); err != nil {
			c.log.Debug("download selector failed", "selector", sel, "error", err)
			continue
		}
		return target, nil
	}

	// Last resort: scan every link on the page for a PDF href.
	fetched := false
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if !strings.Contains(strings.ToLower(href), ".pdf") {
			return true
		}
		c.log.Debug("found pdf link in page scan", "href", href)
		if err := c.fetchHref(taskCtx, href, target); err != nil {
			c.log.Debug("pdf link fetch failed", "href", href, "error", err)
			return true
		}
		fetched = true
		return false
	})
	if fetched {
		if info, err := os.Stat(target); err == nil && info.Size() > 0 {
			return target, nil
		}
	}

	return "", &PDFNotFoundError{PageURL: c.cfg.JornalPDFURL}
}

// fetchMatch downloads through a matched element: href links are fetched
// over HTTP with the session cookies; buttons trigger a native browser
// download and wait for its completion event.
func (c *Chrome) fetchMatch(taskCtx context.Context, match *goquery.Selection, sel, target string) error {
	if href, ok := match.Attr("href"); ok && href != "" {
		return c.fetchHref(taskCtx, href, target)
	}
	return c.clickAndWait(taskCtx, sel, target)
}

// fetchHref resolves href against the current page and streams the PDF to
// target, reusing the authenticated browser session's cookies.
func (c *Chrome) fetchHref(taskCtx context.Context, href, target string) error {
	var loc string
	var cookies []*network.Cookie
	err := chromedp.Run(taskCtx,
		chromedp.Location(&loc),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().Do(ctx)
			return err
		}),
	)
	if err != nil {
		return fmt.Errorf("read session state: %w", err)
	}

	base, err := url.Parse(loc)
	if err != nil {
		return fmt.Errorf("parse page url: %w", err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return fmt.Errorf("parse href: %w", err)
	}
	pdfURL := base.ResolveReference(ref).String()

	reqCtx, cancel := context.WithTimeout(taskCtx, c.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	for _, ck := range cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch pdf: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d for %s", resp.StatusCode, pdfURL)
	}

	return saveStream(resp.Body, target)
}

// clickAndWait sets the browser's download behavior, clicks the control and
// waits for the download-completed event, then moves the file into place.
func (c *Chrome) clickAndWait(taskCtx context.Context, sel, target string) error {
	done := make(chan string, 1)
	lctx, lcancel := context.WithCancel(taskCtx)
	defer lcancel()
	chromedp.ListenTarget(lctx, func(ev interface{}) {
		if e, ok := ev.(*cdbrowser.EventDownloadProgress); ok &&
			e.State == cdbrowser.DownloadProgressStateCompleted {
			select {
			case done <- e.GUID:
			default:
			}
		}
	})

	opCtx, cancel := context.WithTimeout(taskCtx, c.cfg.Timeout)
	defer cancel()
	err := chromedp.Run(opCtx,
		cdbrowser.SetDownloadBehavior(cdbrowser.SetDownloadBehaviorBehaviorAllowAndName).
			WithDownloadPath(c.cfg.DataDir).
			WithEventsEnabled(true),
		chromedp.Click(sel, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("click %s: %w", sel, err)
	}

	select {
	case guid := <-done:
		src := filepath.Join(c.cfg.DataDir, guid)
		if err := os.Rename(src, target); err != nil {
			return fmt.Errorf("move download: %w", err)
		}
		if info, err := os.Stat(target); err != nil || info.Size() == 0 {
			return fmt.Errorf("downloaded file is empty")
		}
		return nil
	case <-opCtx.Done():
		return fmt.Errorf("timeout waiting for download")
	}
}

// navigate loads a URL and returns a DOM snapshot of the rendered page.
func (c *Chrome) navigate(taskCtx context.Context, pageURL string) (*goquery.Document, error) {
	opCtx, cancel := context.WithTimeout(taskCtx, c.cfg.Timeout)
	defer cancel()
	err := chromedp.Run(opCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("navigate %s: %w", pageURL, err)
	}
	return c.snapshot(taskCtx)
}

func (c *Chrome) snapshot(taskCtx context.Context) (*goquery.Document, error) {
	var html string
	opCtx, cancel := context.WithTimeout(taskCtx, c.cfg.Timeout)
	defer cancel()
	if err := chromedp.Run(opCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("capture dom: %w", err)
	}
	return parseDOM(html)
}

func saveStream(r io.Reader, target string) error {
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(target)
		return fmt.Errorf("write %s: %w", target, err)
	}
	if n == 0 {
		os.Remove(target)
		return fmt.Errorf("downloaded file is empty")
	}
	return nil
}
