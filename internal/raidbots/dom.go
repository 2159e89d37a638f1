package raidbots

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/wishlist-sync/internal/types"
)

// Selectors and labels on the Droptimizer page.
const (
	sourcesHeadingXPath = `//h3[contains(text(), 'Sources')]`
	labelSelector       = "label"
	raidBoxSelector     = "#instanceList .Box"
	headingSelector     = ".Heading"
	buttonSelector      = ".Button"

	labelPreviousTiers = "Show Previous Tiers"
	headingDifficulty  = "Raid Difficulty"
	headingFightStyle  = "Fight Style"
	headingDuration    = "Fight Length"
	headingBosses      = "Number of Bosses"
	headingUpgrade     = "Upgrade Level"
	labelMatchEquipped = "Match Equipped Gear"
	labelPowerInfusion = "Power Infusion"
	labelSockets       = "Add Sockets"
	buttonRun          = "Run Droptimizer"
)

func parseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// findByText returns the first element matching selector whose normalized text
// equals the normalized target.
func findByText(doc *goquery.Document, selector, text string) (*goquery.Selection, bool) {
	want := types.NormalizeLabel(text)
	var found *goquery.Selection
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if types.NormalizeLabel(s.Text()) == want {
			found = s
			return false
		}
		return true
	})
	return found, found != nil
}

// findDifficulty locates the clickable box for a difficulty. Raidbots renders each
// option as a box whose first .Text child carries the label, grouped under the
// "Raid Difficulty" heading.
func findDifficulty(doc *goquery.Document, difficulty types.Difficulty) (*goquery.Selection, bool) {
	heading, ok := findByText(doc, headingSelector, headingDifficulty)
	if !ok {
		return nil, false
	}
	var found *goquery.Selection
	heading.Parent().Find(".Text:first-child").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if types.NormalizeLabel(s.Text()) == difficulty.Key() {
			found = s.Parent()
			return false
		}
		return true
	})
	return found, found != nil
}

// findControl returns the first input or select under the heading's parent.
func findControl(doc *goquery.Document, heading string) (*goquery.Selection, bool) {
	h, ok := findByText(doc, headingSelector, heading)
	if !ok {
		return nil, false
	}
	control := h.Parent().Find("select, input").First()
	return control, control.Length() > 0
}

// cssPath builds an nth-child selector that addresses exactly the given element
// in the live page, so goquery's match can be acted on through chromedp.
func cssPath(s *goquery.Selection) string {
	var parts []string
	for n := s.First(); n.Length() > 0; n = n.Parent() {
		name := goquery.NodeName(n)
		if name == "html" {
			parts = append(parts, "html")
			break
		}
		if name == "" || strings.HasPrefix(name, "#") {
			break
		}
		parts = append(parts, fmt.Sprintf("%s:nth-child(%d)", name, n.Index()+1))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

// jobIDFromURL extracts the trailing path segment of a report URL.
func jobIDFromURL(u string) string {
	u = strings.SplitN(u, "?", 2)[0]
	u = strings.SplitN(u, "#", 2)[0]
	u = strings.TrimRight(u, "/")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return u
}
