package report

import (
	"fmt"
	"strings"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
)

// categoryKeywords maps advisory wording to a report category. First match
// wins; anything unmatched falls through to Technical. The category is bound
// at construction so the table and the advisory text are checked against each
// other in one place.
var categoryKeywords = []struct {
	category analyzer.Category
	keywords []string
}{
	{analyzer.CategorySEOContent, []string{"SEO", "keyword", "title", "meta", "description", "H1", "heading", "content", "link"}},
	{analyzer.CategoryUserExperience, []string{"UX", "user", "mobile", "responsive", "navigation", "accessibility"}},
	{analyzer.CategoryPerformance, []string{"performance", "speed", "load", "optimize", "compress", "cache", "CDN"}},
}

// Classify assigns a category to an advisory by keyword matching.
func Classify(text string) analyzer.Category {
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.category
			}
		}
	}
	return analyzer.CategoryTechnical
}

func advise(text string) analyzer.Recommendation {
	return analyzer.Recommendation{Text: text, Category: Classify(text)}
}

// genericAdvisories is the fixed block appended to every report regardless of
// the measured metrics.
var genericAdvisories = []string{
	"Create descriptive, unique titles for each page (50-60 chars)",
	"Write engaging meta descriptions with target keywords (150-160 chars)",
	"Use internal linking to improve crawlability and user navigation",
	"Optimize images (compress, use modern formats like WebP)",
	"Implement lazy loading for images below the fold",
	"Enable GZIP compression to reduce file transfer sizes",
	"Minify CSS and JavaScript files to reduce load times",
	"Use browser caching to improve repeat visitor load times",
	"Implement structured data (Schema.org) for better rich snippets",
	"Ensure mobile responsiveness across all devices",
	"Implement SSL/HTTPS for secure data transmission",
	"Ensure clear navigation hierarchy on all pages",
	"Use readable fonts (minimum 16px for body text)",
	"Implement a clear call-to-action (CTA) strategy",
	"Design mobile-first experience for growing mobile traffic",
	"Reduce bounce rate with engaging above-the-fold content",
}

// Recommend derives the ordered advisory list from the measured metrics,
// followed by the fixed generic block.
func Recommend(seo analyzer.SeoResult, perf analyzer.PerformanceResult) []analyzer.Recommendation {
	recs := make([]analyzer.Recommendation, 0, len(genericAdvisories)+8)

	if seo.MetaDescription == analyzer.MetaMissing {
		recs = append(recs, advise("Add meta description to home page (recommended 150-160 characters)"))
	} else {
		recs = append(recs, advise("Meta description present - ensure it's compelling and keyword-rich"))
	}

	switch {
	case seo.H1Count > 1:
		recs = append(recs, advise("Use only ONE H1 tag per page for better SEO hierarchy"))
	case seo.H1Count == 0:
		recs = append(recs, advise("Add an H1 tag to your main pages for better SEO"))
	}

	if seo.ImagesWithoutAlt > 0 {
		recs = append(recs, advise(fmt.Sprintf("Add ALT text to %d images for accessibility and SEO", seo.ImagesWithoutAlt)))
	}

	if seo.Title == analyzer.TitleMissing {
		recs = append(recs, advise("Add a descriptive title tag (optimal: 50-60 characters)"))
	}

	switch {
	case perf.Score < 60:
		recs = append(recs, advise("Website performance is slow - consider image optimization and caching"))
	case perf.Score < 80:
		recs = append(recs, advise("Optimize assets to improve page load speed"))
	}

	switch {
	case perf.ResponseTimeMs > 3000:
		recs = append(recs, advise("Response time exceeds 3 seconds - implement CDN for faster delivery"))
	case perf.ResponseTimeMs > 2000:
		recs = append(recs, advise("Reduce server response time through database optimization and caching"))
	}

	for _, text := range genericAdvisories {
		recs = append(recs, advise(text))
	}

	return recs
}
