// Package api exposes the HTTP interface for the website analyzer service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
	"github.com/webanalyzer/webanalyzer/internal/config"
	"github.com/webanalyzer/webanalyzer/internal/dispatcher"
	"github.com/webanalyzer/webanalyzer/internal/hash/sha256"
	"github.com/webanalyzer/webanalyzer/internal/performance"
	"github.com/webanalyzer/webanalyzer/internal/progress"
	"github.com/webanalyzer/webanalyzer/internal/report"
	"github.com/webanalyzer/webanalyzer/internal/seo"
)

// Deps carries every collaborator the server needs. All fields except
// Headless and Registry are required.
type Deps struct {
	Probe       analyzer.Fetcher
	Headless    analyzer.Fetcher
	Detector    analyzer.RenderDetector
	Dispatcher  *dispatcher.Dispatcher
	ReportStore analyzer.ReportStore
	StatusStore analyzer.StatusStore
	Emitter     progress.Emitter
	IDGen       analyzer.IDGenerator
	Clock       analyzer.Clock
	Logger      *zap.Logger
	Registry    *prometheus.Registry
}

// Server wires HTTP handlers to the analysis pipeline and delivery queue.
type Server struct {
	router chi.Router
	deps   Deps
	cfg    config.Config
	hasher *sha256.Hasher
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(deps Deps, cfg config.Config) *Server {
	if deps.Emitter == nil {
		deps.Emitter = progress.NopEmitter{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s := &Server{
		deps:   deps,
		cfg:    cfg,
		hasher: sha256.New(),
		logger: deps.Logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(deps.Logger))
	r.Use(recoverMiddleware(deps.Logger))
	r.Use(timeoutMiddleware(60 * time.Second))
	if deps.Registry != nil {
		r.Use(httpMetricsMiddleware(deps.Registry))
	}

	r.Get("/api/health", s.health)
	r.Post("/analyze", s.analyze)
	r.Post("/test-analyze", s.testAnalyze)
	r.Get("/download-latest", s.downloadLatest)
	r.Get("/api/status/{request_id}", s.getStatus)

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	if cfg.Server.StaticDir != "" {
		s.mountStatic(r, cfg.Server.StaticDir)
	}

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) mountStatic(r chi.Router, dir string) {
	fs := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if _, err := os.Stat(index); err != nil {
			s.health(w, r)
			return
		}
		http.ServeFile(w, r, index)
	})
	r.Handle("/*", fs)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "webanalyzer",
	})
}

type analyzeRequest struct {
	URL   string `json:"url"`
	Email string `json:"email"`
}

func (req *analyzeRequest) validate() error {
	req.URL = strings.TrimSpace(req.URL)
	req.Email = strings.TrimSpace(req.Email)
	if req.URL == "" {
		return errors.New("url is required")
	}
	if req.Email == "" {
		return errors.New("email is required")
	}
	if !strings.Contains(req.Email, "@") {
		return errors.New("email is invalid")
	}
	return nil
}

// analyze runs the synchronous analysis and queues both delivery legs. The
// response never waits on email delivery; leg outcomes are observable via
// the status endpoint.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	seoResult, perf, err := s.runAnalysis(r.Context(), req.URL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "analysis failed: "+err.Error())
		return
	}

	requestID, err := s.deps.IDGen.NewID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate request id")
		return
	}
	now := s.deps.Clock.Now()
	textReport := report.ComposeText(seoResult, perf, now)

	record := analyzer.AnalysisRecord{
		ID:          requestID,
		URL:         seoResult.URL,
		Email:       req.Email,
		SubmittedAt: now,
		Legs: []analyzer.LegRecord{
			{Kind: analyzer.TaskTextEmail, State: analyzer.LegQueued, UpdatedAt: now},
			{Kind: analyzer.TaskPDFEmail, State: analyzer.LegQueued, UpdatedAt: now},
		},
	}
	if err := s.deps.StatusStore.CreateRequest(r.Context(), record); err != nil {
		s.logger.Error("create status record failed",
			zap.String("request_id", requestID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to record request")
		return
	}

	kinds := []analyzer.TaskKind{analyzer.TaskTextEmail, analyzer.TaskPDFEmail}
	for i, kind := range kinds {
		task := analyzer.DeliveryTask{
			RequestID:   requestID,
			Kind:        kind,
			Email:       req.Email,
			URL:         seoResult.URL,
			Seo:         seoResult,
			Performance: perf,
			TextReport:  textReport,
			Submitted:   now,
		}
		if err := s.deps.Dispatcher.Enqueue(r.Context(), task); err != nil {
			s.logger.Error("enqueue delivery task failed",
				zap.String("request_id", requestID),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
			// Legs that never made it into the queue must not read as
			// queued forever; earlier legs are already in flight.
			s.failUnqueuedLegs(r.Context(), requestID, kinds[i:], now)
			writeError(w, http.StatusServiceUnavailable, "delivery queue unavailable")
			return
		}
		s.deps.Emitter.Emit(progress.Event{
			RequestID: requestID,
			TS:        now,
			Stage:     progress.StageLegQueued,
			Kind:      kind,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"request_id":  requestID,
		"message":     "Analysis complete! Reports are being sent to your email.",
		"seo_data":    seoResult,
		"performance": perf,
	})
}

func (s *Server) failUnqueuedLegs(ctx context.Context, requestID string, kinds []analyzer.TaskKind, at time.Time) {
	for _, kind := range kinds {
		err := s.deps.StatusStore.UpdateLeg(ctx, requestID, kind, analyzer.LegFailed, "delivery queue unavailable", at)
		if err != nil {
			s.logger.Error("mark leg failed",
				zap.String("request_id", requestID),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
		}
	}
}

// testAnalyze runs the same pipeline without queueing any delivery work.
func (s *Server) testAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	seoResult, perf, err := s.runAnalysis(r.Context(), req.URL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "analysis failed: "+err.Error())
		return
	}
	textReport := report.ComposeText(seoResult, perf, s.deps.Clock.Now())

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"seo_data":    seoResult,
		"performance": perf,
		"text_report": textReport,
	})
}

func (s *Server) downloadLatest(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email query parameter is required")
		return
	}

	file, err := s.deps.ReportStore.LatestReport(r.Context(), analyzer.SanitizeEmail(email))
	if err != nil {
		if errors.Is(err, analyzer.ErrReportNotFound) {
			writeError(w, http.StatusNotFound, "no reports found for this email")
			return
		}
		s.logger.Error("report lookup failed", zap.String("email", email), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "report lookup failed")
		return
	}

	etag := fmt.Sprintf("%q", s.hasher.Digest(file.Data))
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		s.logger.Error("report write failed", zap.String("name", file.Name), zap.Error(err))
	}
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "request_id")
	rec, err := s.deps.StatusStore.GetRequest(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, analyzer.ErrRequestNotFound) {
			writeError(w, http.StatusNotFound, "request not found")
			return
		}
		s.logger.Error("status lookup failed", zap.String("request_id", requestID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "status lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// runAnalysis executes the synchronous probe-extract-score pipeline. An
// unreachable site fails the whole request; callers surface the error as a
// 500 and queue nothing.
func (s *Server) runAnalysis(ctx context.Context, rawURL string) (analyzer.SeoResult, analyzer.PerformanceResult, error) {
	target := analyzer.NormalizeURL(rawURL)

	res, err := s.deps.Probe.Fetch(ctx, analyzer.FetchRequest{URL: target})
	if err != nil {
		s.logger.Warn("probe fetch failed", zap.String("url", target), zap.Error(err))
		return analyzer.SeoResult{}, analyzer.PerformanceResult{}, fmt.Errorf("fetching %s: %w", target, err)
	}

	if s.deps.Headless != nil && s.deps.Detector != nil && s.deps.Detector.ShouldRender(res) {
		rendered, rerr := s.deps.Headless.Fetch(ctx, analyzer.FetchRequest{URL: target, Render: true})
		if rerr != nil {
			s.logger.Warn("headless fetch failed, using probe body",
				zap.String("url", target), zap.Error(rerr))
		} else {
			// Keep the probe's timing and status for scoring; only the
			// document body comes from the rendered pass.
			res.Body = rendered.Body
			res.RenderedHeadless = true
		}
	}

	perf := performance.Score(res.Elapsed, res.StatusCode)
	seoResult, err := seo.Extract(target, res.Body)
	if err != nil {
		s.logger.Warn("seo extraction failed", zap.String("url", target), zap.Error(err))
		return analyzer.SeoResult{
			URL:             target,
			Title:           analyzer.TitleMissing,
			MetaDescription: analyzer.MetaMissing,
		}, perf, nil
	}
	return seoResult, perf, nil
}
