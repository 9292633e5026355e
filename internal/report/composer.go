// Package report builds the plain-text summary and the advisory list for an
// analysis run.
package report

import (
	"fmt"
	"time"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
)

const textTemplate = `AI WEBSITE ANALYSIS REPORT
Generated: %s

WEBSITE ANALYZED: %s

SEO ANALYSIS:
- Title Tag: %s
- Meta Description: %s
- Number of H1 Tags: %d
- Total Images: %d
- Images without ALT text: %d

PERFORMANCE ANALYSIS:
- Website Performance Score: %d/100
- Response Time: %.2fms
- Status Code: %d

RECOMMENDATIONS:
- Add meta description if missing
- Use only one H1 tag per page
- Add ALT text to all images for better SEO
- Optimize images to improve loading speed
- Ensure response time is under 3000ms for better user experience
`

// ComposeText renders the fixed-template summary used as the quick email
// body. Purely presentational; all branching lives in the recommendation
// engine.
func ComposeText(seo analyzer.SeoResult, perf analyzer.PerformanceResult, at time.Time) string {
	return fmt.Sprintf(textTemplate,
		at.Format("2006-01-02 15:04:05"),
		seo.URL,
		seo.Title,
		seo.MetaDescription,
		seo.H1Count,
		seo.TotalImages,
		seo.ImagesWithoutAlt,
		perf.Score,
		perf.ResponseTimeMs,
		perf.StatusCode,
	)
}

// GroupByCategory orders recommendations into the four fixed report
// categories, preserving relative order within each.
func GroupByCategory(recs []analyzer.Recommendation) map[analyzer.Category][]analyzer.Recommendation {
	grouped := make(map[analyzer.Category][]analyzer.Recommendation, len(analyzer.Categories))
	for _, rec := range recs {
		grouped[rec.Category] = append(grouped[rec.Category], rec)
	}
	return grouped
}
