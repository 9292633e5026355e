package analyzer

import (
	"context"
	"errors"
	"time"
)

// ErrReportNotFound is returned by report lookups with no matching artifact.
var ErrReportNotFound = errors.New("no report found")

// ErrRequestNotFound is returned by status lookups for unknown request IDs.
var ErrRequestNotFound = errors.New("request not found")

// Fetcher fetches a URL and returns the body plus timing metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResult, error)
}

// RenderDetector decides whether a probe response warrants a headless
// re-fetch before SEO extraction.
type RenderDetector interface {
	ShouldRender(probe FetchResult) bool
}

// Queue provides enqueue/dequeue semantics for delivery tasks.
type Queue interface {
	Enqueue(ctx context.Context, task DeliveryTask) error
	Dequeue(ctx context.Context) (DeliveryTask, error)
}

// ReportStore persists report artifacts and answers latest-by-email lookups.
type ReportStore interface {
	SaveReport(ctx context.Context, name string, data []byte) (string, error)
	LatestReport(ctx context.Context, emailKey string) (ReportFile, error)
}

// ReportFile is a stored report artifact returned by a lookup.
type ReportFile struct {
	Name    string
	ModTime time.Time
	Data    []byte
}

// StatusStore records per-request delivery outcomes.
type StatusStore interface {
	CreateRequest(ctx context.Context, rec AnalysisRecord) error
	UpdateLeg(ctx context.Context, requestID string, kind TaskKind, state LegState, errText string, at time.Time) error
	GetRequest(ctx context.Context, requestID string) (AnalysisRecord, error)
}

// Attachment is a file carried by an outgoing email.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Mailer submits email to the configured relay. Implementations must be safe
// for concurrent use by multiple workers.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
	SendWithAttachment(ctx context.Context, to, subject, body string, att Attachment) error
}

// PDFBuilder lays out the full report document.
type PDFBuilder interface {
	Build(ctx context.Context, input ReportInput) ([]byte, error)
}

// ReportInput is everything the PDF assembler needs for one document.
type ReportInput struct {
	Seo              SeoResult
	Performance      PerformanceResult
	Recommendations  []Recommendation
	Email            string
	GeneratedAt      time.Time
	SeoChart         []byte
	MetaChart        []byte
	PerformanceChart []byte
}

// ChartRenderer produces the raster chart artifacts embedded in the PDF.
type ChartRenderer interface {
	AltCoverage(seo SeoResult) ([]byte, error)
	MetaStatus(seo SeoResult) ([]byte, error)
	PerformanceDonut(perf PerformanceResult) ([]byte, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces request IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
