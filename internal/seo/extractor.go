// Package seo extracts on-page SEO signals from fetched HTML.
package seo

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
)

// Extract parses the page and derives title, meta-description presence,
// heading count, and image alt-text coverage. Malformed markup is handled
// best-effort by the parser; extraction itself is deterministic.
func Extract(url string, html []byte) (analyzer.SeoResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return analyzer.SeoResult{}, fmt.Errorf("parse html: %w", err)
	}

	result := analyzer.SeoResult{
		URL:             url,
		Title:           analyzer.TitleMissing,
		MetaDescription: analyzer.MetaMissing,
	}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		result.Title = title
	}

	// Presence of the element is what counts, not its content.
	if doc.Find("meta[name='description']").Length() > 0 {
		result.MetaDescription = analyzer.MetaPresent
	}

	result.H1Count = doc.Find("h1").Length()

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		result.TotalImages++
		alt, exists := s.Attr("alt")
		if !exists || strings.TrimSpace(alt) == "" {
			result.ImagesWithoutAlt++
		}
	})

	return result, nil
}
