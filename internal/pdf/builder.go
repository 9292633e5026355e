// Package pdf renders the downloadable analysis report.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
	"github.com/webanalyzer/webanalyzer/internal/report"
)

const (
	pageWidth   = 190.0 // A4 content width with 10mm margins
	lineHeight  = 6.0
	labelWidth  = 60.0
	headerBlue  = 41
	headerGreen = 128
	headerRed   = 185
)

// Config holds optional branding assets.
type Config struct {
	LogoPath string
}

// Builder renders analysis results into a PDF document. It is stateless and
// safe for concurrent use; each Build call works on a fresh fpdf instance.
type Builder struct {
	logoPath string
	logger   *zap.Logger
}

var _ analyzer.PDFBuilder = (*Builder)(nil)

func New(cfg Config, logger *zap.Logger) *Builder {
	logoPath := cfg.LogoPath
	if logoPath != "" {
		if _, err := os.Stat(logoPath); err != nil {
			logger.Warn("logo asset not readable, header renders without it",
				zap.String("path", logoPath), zap.Error(err))
			logoPath = ""
		}
	}
	return &Builder{logoPath: logoPath, logger: logger}
}

// Build renders the full report. Chart images are optional; a missing chart
// leaves a text placeholder rather than failing the whole document.
func (b *Builder) Build(ctx context.Context, in analyzer.ReportInput) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(10, 10, 10)
	doc.SetAutoPageBreak(true, 15)
	doc.AliasNbPages("")
	doc.SetFooterFunc(func() {
		doc.SetY(-12)
		doc.SetFont("Arial", "I", 8)
		doc.SetTextColor(120, 120, 120)
		doc.CellFormat(0, 6, fmt.Sprintf("WebAnalyzer report - page %d/{nb}", doc.PageNo()), "", 0, "C", false, 0, "")
	})
	doc.AddPage()

	b.writeHeader(doc, in)
	b.writeSeoSection(doc, in)

	doc.AddPage()
	b.writePerformanceSection(doc, in)
	b.writeRecommendations(doc, in.Recommendations)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("generating pdf output: %w", err)
	}

	b.logger.Debug("pdf rendered",
		zap.String("url", in.Seo.URL),
		zap.Int("bytes", buf.Len()),
	)
	return buf.Bytes(), nil
}

func (b *Builder) writeHeader(doc *fpdf.Fpdf, in analyzer.ReportInput) {
	doc.SetFillColor(headerBlue, headerGreen, headerRed)
	doc.Rect(10, 10, pageWidth, 18, "F")
	if b.logoPath != "" {
		doc.ImageOptions(b.logoPath, 12, 12, 14, 0, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
	}
	doc.SetTextColor(255, 255, 255)
	doc.SetFont("Arial", "B", 16)
	doc.SetXY(10, 14)
	doc.CellFormat(pageWidth, 10, "AI Website Analysis Report", "", 1, "C", false, 0, "")

	doc.SetTextColor(0, 0, 0)
	doc.SetY(32)
	b.infoRow(doc, "Website", in.Seo.URL)
	b.infoRow(doc, "Requested by", in.Email)
	b.infoRow(doc, "Generated", in.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	doc.Ln(4)
}

func (b *Builder) infoRow(doc *fpdf.Fpdf, label, value string) {
	doc.SetFont("Arial", "B", 10)
	doc.CellFormat(labelWidth, lineHeight, label, "1", 0, "L", false, 0, "")
	doc.SetFont("Arial", "", 10)
	doc.CellFormat(pageWidth-labelWidth, lineHeight, value, "1", 1, "L", false, 0, "")
}

func (b *Builder) sectionTitle(doc *fpdf.Fpdf, title string) {
	doc.SetFont("Arial", "B", 13)
	doc.SetTextColor(headerBlue, headerGreen, headerRed)
	doc.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
	doc.SetTextColor(0, 0, 0)
	doc.Ln(1)
}

func (b *Builder) writeSeoSection(doc *fpdf.Fpdf, in analyzer.ReportInput) {
	b.sectionTitle(doc, "SEO Analysis")

	rows := [][2]string{
		{"Title Tag", in.Seo.Title},
		{"Meta Description", in.Seo.MetaDescription},
		{"H1 Tags", fmt.Sprintf("%d", in.Seo.H1Count)},
		{"Total Images", fmt.Sprintf("%d", in.Seo.TotalImages)},
		{"Images Missing ALT Text", fmt.Sprintf("%d", in.Seo.ImagesWithoutAlt)},
	}
	for _, row := range rows {
		b.infoRow(doc, row[0], row[1])
	}
	doc.Ln(4)

	b.embedChart(doc, "seo_alt_coverage", in.SeoChart, 120)
	b.embedChart(doc, "seo_meta_status", in.MetaChart, 90)
}

func (b *Builder) writePerformanceSection(doc *fpdf.Fpdf, in analyzer.ReportInput) {
	b.sectionTitle(doc, "Performance Analysis")

	rows := [][2]string{
		{"Performance Score", fmt.Sprintf("%d/100", in.Performance.Score)},
		{"Response Time", fmt.Sprintf("%.2fms", in.Performance.ResponseTimeMs)},
		{"HTTP Status Code", fmt.Sprintf("%d", in.Performance.StatusCode)},
	}
	for _, row := range rows {
		b.infoRow(doc, row[0], row[1])
	}
	doc.Ln(4)

	b.embedChart(doc, "performance_donut", in.PerformanceChart, 90)
}

// embedChart places a PNG from memory, registered under a name unique within
// the document. Width is in mm; height scales with the image aspect ratio.
func (b *Builder) embedChart(doc *fpdf.Fpdf, name string, png []byte, width float64) {
	if len(png) == 0 {
		doc.SetFont("Arial", "I", 9)
		doc.CellFormat(0, lineHeight, "(chart unavailable)", "", 1, "L", false, 0, "")
		doc.Ln(2)
		return
	}

	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	x := 10 + (pageWidth-width)/2
	doc.ImageOptions(name, x, doc.GetY(), width, 0, true, opts, 0, "")
	doc.Ln(4)
}

func (b *Builder) writeRecommendations(doc *fpdf.Fpdf, recs []analyzer.Recommendation) {
	b.sectionTitle(doc, "Recommendations")

	grouped := report.GroupByCategory(recs)
	for _, category := range analyzer.Categories {
		items := grouped[category]
		if len(items) == 0 {
			continue
		}

		doc.SetFont("Arial", "B", 11)
		doc.SetFillColor(230, 230, 230)
		doc.CellFormat(pageWidth, 7, string(category), "1", 1, "L", true, 0, "")

		doc.SetFont("Arial", "", 9)
		for _, item := range items {
			doc.SetX(10)
			doc.MultiCell(pageWidth, 5.5, "- "+item.Text, "LR", "L", false)
		}
		doc.CellFormat(pageWidth, 0, "", "T", 1, "L", false, 0, "")
		doc.Ln(2)
	}
}
