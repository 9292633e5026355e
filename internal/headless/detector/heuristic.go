// Package detector decides when a page needs a rendered fetch before SEO
// extraction. Server-rendered pages skip the browser entirely.
package detector

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
)

// Mount points that client-side frameworks hydrate after load. A mount point
// alone is not a signal; plenty of server-rendered pages keep one around.
var mountSelectors = []string{
	"#root",
	"#app",
	"#__next",
	"[data-reactroot]",
	"[ng-app]",
}

// sparseTextBytes is the visible-text floor below which a page with a
// framework mount point is treated as an unhydrated shell.
const sparseTextBytes = 200

// Heuristic implements a handful of rule-based checks over the parsed probe.
type Heuristic struct {
	BodyLengthThreshold int
}

// NewHeuristic creates a new detector.
func NewHeuristic(threshold int) *Heuristic {
	if threshold == 0 {
		threshold = 2048
	}
	return &Heuristic{BodyLengthThreshold: threshold}
}

// ShouldRender decides whether the probe body looks like a JS application
// shell whose real markup only exists after rendering.
func (h *Heuristic) ShouldRender(probe analyzer.FetchResult) bool {
	if probe.StatusCode != 200 {
		return false
	}
	if len(probe.Body) == 0 {
		return true
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(probe.Body))
	if err != nil {
		// An unparseable probe tells us nothing; let the browser produce
		// real markup.
		return true
	}

	visible := visibleTextLen(doc)
	if hasMountPoint(doc) && visible < sparseTextBytes {
		return true
	}
	return len(probe.Body) < h.BodyLengthThreshold && scriptHeavy(doc, visible)
}

func hasMountPoint(doc *goquery.Document) bool {
	for _, sel := range mountSelectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}

// visibleTextLen measures the body text a reader would actually see,
// discounting inline script and style content.
func visibleTextLen(doc *goquery.Document) int {
	body := doc.Find("body")
	total := len(strings.TrimSpace(body.Text()))
	body.Find("script,style").Each(func(_ int, s *goquery.Selection) {
		total -= len(s.Text())
	})
	if total < 0 {
		return 0
	}
	return total
}

// scriptHeavy reports whether inline script dominates what little text the
// document carries.
func scriptHeavy(doc *goquery.Document, visible int) bool {
	script := 0
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		script += len(s.Text())
	})
	if script == 0 {
		return false
	}
	return float64(script)/float64(script+visible) > 0.4
}
