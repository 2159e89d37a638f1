package raidbots

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/jonathan/wishlist-sync/internal/types"
)

// DefaultBrowserTimeout bounds one full submission, from navigation to job URL.
const DefaultBrowserTimeout = 2 * time.Minute

// DefaultStepDelay is the pause between UI interactions; the page animates
// between steps and clicks issued too early are dropped.
const DefaultStepDelay = 3 * time.Second

// ErrElementNotFound is returned when a required control is missing from the page.
var ErrElementNotFound = errors.New("element not found")

// SimRequest describes one Droptimizer submission.
type SimRequest struct {
	Region        string
	Realm         string
	CharacterName string
	Raid          types.RaidInstance
	Difficulty    types.Difficulty
	Settings      types.SimSettings
}

// BrowserOptions configures the headless browser launcher.
type BrowserOptions struct {
	BaseURL   string
	Timeout   time.Duration
	StepDelay time.Duration
	Headless  bool
}

// DefaultBrowserOptions returns sensible defaults for the launcher.
func DefaultBrowserOptions() *BrowserOptions {
	return &BrowserOptions{
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultBrowserTimeout,
		StepDelay: DefaultStepDelay,
		Headless:  true,
	}
}

// BrowserLauncher starts Droptimizer jobs by driving the Raidbots UI in Chrome.
// Every Start call owns its own browser for the duration of the submission.
// Requires Chrome/Chromium to be installed on the system.
type BrowserLauncher struct {
	opts   BrowserOptions
	logger *slog.Logger
}

// NewBrowserLauncher creates a launcher. Nil options use DefaultBrowserOptions.
func NewBrowserLauncher(opts *BrowserOptions, logger *slog.Logger) *BrowserLauncher {
	if opts == nil {
		opts = DefaultBrowserOptions()
	}
	o := *opts
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultBrowserTimeout
	}
	if o.StepDelay < 0 {
		o.StepDelay = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserLauncher{opts: o, logger: logger}
}

// DroptimizerURL returns the Droptimizer page for a character.
func DroptimizerURL(baseURL, region, realm, name string) string {
	q := url.Values{}
	q.Set("region", region)
	q.Set("realm", realm)
	q.Set("name", name)
	return strings.TrimRight(baseURL, "/") + "/simbot/droptimizer?" + q.Encode()
}

// Start submits a Droptimizer job and returns its job ID.
func (l *BrowserLauncher) Start(ctx context.Context, req SimRequest) (string, error) {
	target := DroptimizerURL(l.opts.BaseURL, req.Region, req.Realm, req.CharacterName)
	log := l.logger.With(
		"character", req.CharacterName+"-"+req.Realm,
		"raid", req.Raid.Name,
		"difficulty", string(req.Difficulty),
		"config", req.Settings.Index,
	)
	log.Debug("starting headless browser", "url", target)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", l.opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, l.opts.Timeout)
	defer cancel()

	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(target),
		chromedp.WaitVisible(sourcesHeadingXPath, chromedp.BySearch),
	); err != nil {
		return "", &Error{URL: target, Message: "character did not load", Cause: err}
	}

	if !req.Raid.IsCurrentTier {
		log.Debug("showing previous tiers")
		if err := l.clickByText(browserCtx, labelSelector, labelPreviousTiers); err != nil {
			return "", &Error{URL: target, Message: "could not show previous tiers", Cause: err}
		}
	}

	log.Debug("selecting raid")
	if err := l.clickByText(browserCtx, raidBoxSelector, req.Raid.Name); err != nil {
		return "", &Error{URL: target, Message: fmt.Sprintf("could not select raid %q", req.Raid.Name), Cause: err}
	}

	log.Debug("selecting difficulty")
	if err := l.clickDifficulty(browserCtx, req.Difficulty); err != nil {
		return "", &Error{URL: target, Message: fmt.Sprintf("could not select difficulty %q", req.Difficulty), Cause: err}
	}

	l.applySettings(browserCtx, log, req.Settings)

	var before string
	if err := chromedp.Run(browserCtx, chromedp.Location(&before)); err != nil {
		return "", &Error{URL: target, Message: "could not read page location", Cause: err}
	}

	log.Debug("starting sim")
	if err := l.clickByText(browserCtx, buttonSelector, buttonRun); err != nil {
		return "", &Error{URL: target, Message: "could not start sim", Cause: err}
	}

	after, err := waitForNavigation(browserCtx, before)
	if err != nil {
		return "", &Error{URL: target, Message: "sim page never opened", Cause: err}
	}

	jobID := jobIDFromURL(after)
	if jobID == "" {
		return "", &Error{URL: after, Message: "report URL carries no job ID"}
	}
	log.Debug("sim submitted", "job_id", jobID)
	return jobID, nil
}

// snapshot pauses for the configured step delay and returns the parsed live DOM.
func (l *BrowserLauncher) snapshot(ctx context.Context) (*goquery.Document, error) {
	var html string
	if err := chromedp.Run(ctx,
		chromedp.Sleep(l.opts.StepDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	return parseDocument(html)
}

func (l *BrowserLauncher) clickByText(ctx context.Context, selector, text string) error {
	doc, err := l.snapshot(ctx)
	if err != nil {
		return err
	}
	el, ok := findByText(doc, selector, text)
	if !ok {
		return fmt.Errorf("%w: %s %q", ErrElementNotFound, selector, text)
	}
	return jsClick(ctx, cssPath(el))
}

func (l *BrowserLauncher) clickDifficulty(ctx context.Context, difficulty types.Difficulty) error {
	doc, err := l.snapshot(ctx)
	if err != nil {
		return err
	}
	el, ok := findDifficulty(doc, difficulty)
	if !ok {
		return fmt.Errorf("%w: difficulty %q", ErrElementNotFound, difficulty)
	}
	return jsClick(ctx, cssPath(el))
}

// applySettings sets the optional sim controls. The page defaults are usable, so
// a missing control is logged and the submission goes ahead.
func (l *BrowserLauncher) applySettings(ctx context.Context, log *slog.Logger, s types.SimSettings) {
	doc, err := l.snapshot(ctx)
	if err != nil {
		log.Warn("could not read sim options", "error", err)
		return
	}

	toggles := []struct {
		label string
		want  bool
	}{
		{labelMatchEquipped, s.MatchEquippedGear},
		{labelPowerInfusion, s.PowerInfusion},
		{labelSockets, s.Sockets},
	}
	for _, t := range toggles {
		el, ok := findByText(doc, labelSelector, t.label)
		if !ok {
			log.Warn("sim option not found", "option", t.label)
			continue
		}
		if err := jsToggle(ctx, cssPath(el), t.want); err != nil {
			log.Warn("could not set sim option", "option", t.label, "error", err)
		}
	}

	values := []struct {
		heading string
		value   string
	}{
		{headingFightStyle, s.FightStyle},
		{headingDuration, strconv.Itoa(s.FightDuration)},
		{headingBosses, strconv.Itoa(s.NumberOfBosses)},
	}
	if s.UpgradeLevel != types.Uncapped {
		values = append(values, struct {
			heading string
			value   string
		}{headingUpgrade, strconv.Itoa(s.UpgradeLevel)})
	}
	for _, v := range values {
		if v.value == "" {
			continue
		}
		el, ok := findControl(doc, v.heading)
		if !ok {
			log.Warn("sim option not found", "option", v.heading)
			continue
		}
		if err := jsSetValue(ctx, cssPath(el), v.value); err != nil {
			log.Warn("could not set sim option", "option", v.heading, "error", err)
		}
	}
}

func jsClick(ctx context.Context, path string) error {
	var ok bool
	script := fmt.Sprintf(`(() => { const el = document.querySelector(%s); if (!el) return false; el.click(); return true; })()`,
		strconv.Quote(path))
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrElementNotFound, path)
	}
	return nil
}

func jsToggle(ctx context.Context, path string, want bool) error {
	var ok bool
	script := fmt.Sprintf(`(() => {
		const label = document.querySelector(%s);
		const input = label && label.querySelector('input[type=checkbox]');
		if (!input) return false;
		if (input.checked !== %t) label.click();
		return true;
	})()`, strconv.Quote(path), want)
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: checkbox in %s", ErrElementNotFound, path)
	}
	return nil
}

// jsSetValue writes through the native value setter so React sees the change.
func jsSetValue(ctx context.Context, path, value string) error {
	var ok bool
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		const proto = el.tagName === 'SELECT' ? HTMLSelectElement.prototype : HTMLInputElement.prototype;
		Object.getOwnPropertyDescriptor(proto, 'value').set.call(el, %s);
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	})()`, strconv.Quote(path), strconv.Quote(value))
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrElementNotFound, path)
	}
	return nil
}

// waitForNavigation polls the page location until it differs from before.
func waitForNavigation(ctx context.Context, before string) (string, error) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		var current string
		if err := chromedp.Run(ctx, chromedp.Location(&current)); err != nil {
			return "", err
		}
		if current != before {
			return current, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}
