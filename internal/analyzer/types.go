// Package analyzer defines core types shared across subsystems.
package analyzer

import "time"

// MetaPresent and MetaMissing are the two values reported for the
// meta-description check.
const (
	MetaPresent = "Present"
	MetaMissing = "Missing"
)

// TitleMissing is reported when a page has no <title> element.
const TitleMissing = "Missing"

// SeoResult holds the signals extracted from a fetched page. It is created
// once per analysis request and never mutated afterwards.
type SeoResult struct {
	URL              string `json:"url"`
	Title            string `json:"title"`
	MetaDescription  string `json:"meta_description"`
	H1Count          int    `json:"h1_count"`
	ImagesWithoutAlt int    `json:"images_without_alt"`
	TotalImages      int    `json:"total_images"`
}

// PerformanceResult is the coarse latency score for a fetch. StatusCode 0
// means the fetch itself failed.
type PerformanceResult struct {
	Score          int     `json:"score"`
	ResponseTimeMs float64 `json:"response_time"`
	StatusCode     int     `json:"status_code"`
}

// FetchRequest captures everything needed to fetch a page.
type FetchRequest struct {
	URL    string
	Render bool
}

// FetchResult is returned by a Fetcher implementation.
type FetchResult struct {
	URL              string
	StatusCode       int
	Body             []byte
	Elapsed          time.Duration
	RenderedHeadless bool
}

// Category groups recommendations in the rendered report.
type Category string

// Recommendation categories, in report order.
const (
	CategorySEOContent     Category = "SEO & Content"
	CategoryUserExperience Category = "User Experience"
	CategoryPerformance    Category = "Performance"
	CategoryTechnical      Category = "Technical"
)

// Categories lists all categories in the order they appear in reports.
var Categories = []Category{
	CategorySEOContent,
	CategoryUserExperience,
	CategoryPerformance,
	CategoryTechnical,
}

// Recommendation is a single advisory line. The category is assigned when the
// recommendation is built so wording and grouping cannot drift apart.
type Recommendation struct {
	Text     string   `json:"text"`
	Category Category `json:"category"`
}

// TaskKind identifies which delivery leg a task represents.
type TaskKind string

// Delivery leg kinds.
const (
	TaskTextEmail TaskKind = "text_email"
	TaskPDFEmail  TaskKind = "pdf_email"
)

// DeliveryTask is one unit of background delivery work. Both legs of a
// request carry the same analysis snapshot; they share no other state.
type DeliveryTask struct {
	RequestID   string
	Kind        TaskKind
	Email       string
	URL         string
	Seo         SeoResult
	Performance PerformanceResult
	TextReport  string
	Submitted   time.Time
}

// LegState is the lifecycle state of a delivery leg.
type LegState string

// Leg states recorded in the status store.
const (
	LegQueued  LegState = "queued"
	LegRunning LegState = "running"
	LegSent    LegState = "sent"
	LegFailed  LegState = "failed"
)

// LegRecord tracks a single delivery leg for a request.
type LegRecord struct {
	Kind      TaskKind  `json:"kind"`
	State     LegState  `json:"state"`
	ErrorText string    `json:"error_text,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnalysisRecord is the per-request status record. It exists so leg failures
// are observable after the HTTP caller has already been acknowledged.
type AnalysisRecord struct {
	ID          string      `json:"id"`
	URL         string      `json:"url"`
	Email       string      `json:"email"`
	SubmittedAt time.Time   `json:"submitted_at"`
	Legs        []LegRecord `json:"legs"`
}
