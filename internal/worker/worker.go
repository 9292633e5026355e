// Package worker implements the delivery pipeline execution loop.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
	"github.com/webanalyzer/webanalyzer/internal/progress"
	"github.com/webanalyzer/webanalyzer/internal/report"
)

const (
	textSubject = "Your Website Analysis Report"
	pdfSubject  = "Your Website Analysis Report (PDF)"
)

// Worker consumes delivery tasks and executes the email legs. A failed leg is
// recorded through the emitter and logged; it never stops the loop, and the
// sibling leg of the same request is unaffected.
type Worker struct {
	queue       analyzer.Queue
	mailer      analyzer.Mailer
	charts      analyzer.ChartRenderer
	pdfBuilder  analyzer.PDFBuilder
	reportStore analyzer.ReportStore
	clock       analyzer.Clock
	emitter     progress.Emitter
	logger      *zap.Logger
}

// New constructs a Worker.
func New(
	queue analyzer.Queue,
	mailer analyzer.Mailer,
	charts analyzer.ChartRenderer,
	pdfBuilder analyzer.PDFBuilder,
	reportStore analyzer.ReportStore,
	clock analyzer.Clock,
	emitter progress.Emitter,
	logger *zap.Logger,
) *Worker {
	if emitter == nil {
		emitter = progress.NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		queue:       queue,
		mailer:      mailer,
		charts:      charts,
		pdfBuilder:  pdfBuilder,
		reportStore: reportStore,
		clock:       clock,
		emitter:     emitter,
		logger:      logger,
	}
}

// Run blocks, consuming tasks until the context finishes.
func (w *Worker) Run(ctx context.Context) {
	for {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			return
		}
		w.Process(ctx, task)
	}
}

// Process executes a single delivery leg.
func (w *Worker) Process(ctx context.Context, task analyzer.DeliveryTask) {
	started := w.clock.Now()
	w.emit(task, progress.StageLegStart, started, "")

	var err error
	switch task.Kind {
	case analyzer.TaskTextEmail:
		err = w.deliverText(ctx, task)
	case analyzer.TaskPDFEmail:
		err = w.deliverPDF(ctx, task)
	default:
		w.logger.Error("unknown task kind",
			zap.String("request_id", task.RequestID),
			zap.String("kind", string(task.Kind)),
		)
		return
	}

	finished := w.clock.Now()
	if err != nil {
		w.logger.Error("delivery leg failed",
			zap.String("request_id", task.RequestID),
			zap.String("kind", string(task.Kind)),
			zap.String("email", task.Email),
			zap.Error(err),
		)
		w.emitWithDur(task, progress.StageLegFailed, finished, finished.Sub(started), err.Error())
		return
	}

	w.logger.Info("delivery leg sent",
		zap.String("request_id", task.RequestID),
		zap.String("kind", string(task.Kind)),
		zap.String("email", task.Email),
		zap.Duration("dur", finished.Sub(started)),
	)
	w.emitWithDur(task, progress.StageLegSent, finished, finished.Sub(started), "")
}

func (w *Worker) deliverText(ctx context.Context, task analyzer.DeliveryTask) error {
	return w.mailer.Send(ctx, task.Email, textSubject, task.TextReport)
}

// deliverPDF renders the charts and document in memory, persists the
// artifacts for later download, then mails the document as an attachment.
func (w *Worker) deliverPDF(ctx context.Context, task analyzer.DeliveryTask) error {
	seoChart, err := w.charts.AltCoverage(task.Seo)
	if err != nil {
		w.logger.Warn("alt coverage chart failed",
			zap.String("request_id", task.RequestID), zap.Error(err))
		seoChart = nil
	}
	metaChart, err := w.charts.MetaStatus(task.Seo)
	if err != nil {
		w.logger.Warn("meta status chart failed",
			zap.String("request_id", task.RequestID), zap.Error(err))
		metaChart = nil
	}
	perfChart, err := w.charts.PerformanceDonut(task.Performance)
	if err != nil {
		w.logger.Warn("performance donut failed",
			zap.String("request_id", task.RequestID), zap.Error(err))
		perfChart = nil
	}

	// Name each image by request id so concurrent analyses never clobber
	// each other's figures.
	w.saveChart(ctx, task, "seo_chart", seoChart)
	w.saveChart(ctx, task, "meta_chart", metaChart)
	w.saveChart(ctx, task, "performance_chart", perfChart)

	generatedAt := w.clock.Now()
	doc, err := w.pdfBuilder.Build(ctx, analyzer.ReportInput{
		Seo:              task.Seo,
		Performance:      task.Performance,
		Recommendations:  report.Recommend(task.Seo, task.Performance),
		Email:            task.Email,
		GeneratedAt:      generatedAt,
		SeoChart:         seoChart,
		MetaChart:        metaChart,
		PerformanceChart: perfChart,
	})
	if err != nil {
		return err
	}

	name := analyzer.ReportFileName(task.Email, generatedAt)
	if _, err := w.reportStore.SaveReport(ctx, name, doc); err != nil {
		return err
	}

	body := "Your full website analysis report is attached as a PDF."
	return w.mailer.SendWithAttachment(ctx, task.Email, pdfSubject, body, analyzer.Attachment{
		Filename:    name,
		ContentType: "application/pdf",
		Content:     doc,
	})
}

// saveChart persists a chart image best-effort: a PDF delivery never fails
// because an auxiliary artifact could not be written.
func (w *Worker) saveChart(ctx context.Context, task analyzer.DeliveryTask, prefix string, png []byte) {
	if len(png) == 0 {
		return
	}
	name := analyzer.ChartFileName(prefix, task.RequestID)
	if _, err := w.reportStore.SaveReport(ctx, name, png); err != nil {
		w.logger.Warn("chart artifact save failed",
			zap.String("request_id", task.RequestID),
			zap.String("name", name),
			zap.Error(err),
		)
	}
}

func (w *Worker) emit(task analyzer.DeliveryTask, stage progress.Stage, at time.Time, note string) {
	w.emitWithDur(task, stage, at, 0, note)
}

func (w *Worker) emitWithDur(task analyzer.DeliveryTask, stage progress.Stage, at time.Time, dur time.Duration, note string) {
	w.emitter.Emit(progress.Event{
		RequestID: task.RequestID,
		TS:        at,
		Stage:     stage,
		Kind:      task.Kind,
		Dur:       dur,
		Note:      note,
	})
}
