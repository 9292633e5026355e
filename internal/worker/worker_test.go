package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
	"github.com/webanalyzer/webanalyzer/internal/progress"
	queuemem "github.com/webanalyzer/webanalyzer/internal/queue/memory"
	storagemem "github.com/webanalyzer/webanalyzer/internal/storage/memory"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

type sentMail struct {
	to      string
	subject string
	body    string
	att     *analyzer.Attachment
}

type fakeMailer struct {
	mu    sync.Mutex
	sends []sentMail
	fail  bool
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	return m.record(sentMail{to: to, subject: subject, body: body})
}

func (m *fakeMailer) SendWithAttachment(_ context.Context, to, subject, body string, att analyzer.Attachment) error {
	return m.record(sentMail{to: to, subject: subject, body: body, att: &att})
}

func (m *fakeMailer) record(s sentMail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp refused")
	}
	m.sends = append(m.sends, s)
	return nil
}

func (m *fakeMailer) snapshot() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sends...)
}

type fakeCharts struct {
	fail bool
}

func (c *fakeCharts) AltCoverage(analyzer.SeoResult) ([]byte, error) {
	if c.fail {
		return nil, errors.New("chart failed")
	}
	return []byte("png-alt"), nil
}

func (c *fakeCharts) MetaStatus(analyzer.SeoResult) ([]byte, error) {
	if c.fail {
		return nil, errors.New("chart failed")
	}
	return []byte("png-meta"), nil
}

func (c *fakeCharts) PerformanceDonut(analyzer.PerformanceResult) ([]byte, error) {
	if c.fail {
		return nil, errors.New("chart failed")
	}
	return []byte("png-donut"), nil
}

type fakePDF struct{}

func (fakePDF) Build(_ context.Context, in analyzer.ReportInput) ([]byte, error) {
	return []byte("%PDF-fake " + in.Seo.URL), nil
}

type captureEmitter struct {
	mu     sync.Mutex
	events []progress.Event
}

func (e *captureEmitter) Emit(evt progress.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, evt)
}

func (e *captureEmitter) stages() []progress.Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]progress.Stage, 0, len(e.events))
	for _, evt := range e.events {
		out = append(out, evt.Stage)
	}
	return out
}

func testTask(kind analyzer.TaskKind) analyzer.DeliveryTask {
	return analyzer.DeliveryTask{
		RequestID: "req-1",
		Kind:      kind,
		Email:     "user@example.com",
		URL:       "https://example.com",
		Seo: analyzer.SeoResult{
			URL:         "https://example.com",
			Title:       "Example",
			TotalImages: 2,
		},
		Performance: analyzer.PerformanceResult{Score: 90, ResponseTimeMs: 100, StatusCode: 200},
		TextReport:  "AI WEBSITE ANALYSIS REPORT ...",
		Submitted:   time.Unix(1700000000, 0).UTC(),
	}
}

// recordingStore captures every saved artifact name on top of the in-memory
// store so tests can assert what was written.
type recordingStore struct {
	*storagemem.ReportStore
	mu    sync.Mutex
	names []string
}

func (s *recordingStore) SaveReport(ctx context.Context, name string, data []byte) (string, error) {
	s.mu.Lock()
	s.names = append(s.names, name)
	s.mu.Unlock()
	return s.ReportStore.SaveReport(ctx, name, data)
}

func (s *recordingStore) saved() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

func newWorker(t *testing.T, mailer *fakeMailer, emitter *captureEmitter) (*Worker, *recordingStore) {
	t.Helper()

	clock := &fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := &recordingStore{ReportStore: storagemem.NewReportStore(clock)}
	w := New(queuemem.NewQueue(4), mailer, &fakeCharts{}, fakePDF{}, store, clock, emitter, zaptest.NewLogger(t))
	return w, store
}

func TestProcessTextLeg(t *testing.T) {
	t.Parallel()

	mailer := &fakeMailer{}
	emitter := &captureEmitter{}
	w, _ := newWorker(t, mailer, emitter)

	w.Process(context.Background(), testTask(analyzer.TaskTextEmail))

	sends := mailer.snapshot()
	require.Len(t, sends, 1)
	require.Equal(t, "user@example.com", sends[0].to)
	require.Equal(t, "Your Website Analysis Report", sends[0].subject)
	require.Equal(t, "AI WEBSITE ANALYSIS REPORT ...", sends[0].body)
	require.Nil(t, sends[0].att)
	require.Equal(t, []progress.Stage{progress.StageLegStart, progress.StageLegSent}, emitter.stages())
}

func TestProcessPDFLeg(t *testing.T) {
	t.Parallel()

	mailer := &fakeMailer{}
	emitter := &captureEmitter{}
	w, store := newWorker(t, mailer, emitter)

	w.Process(context.Background(), testTask(analyzer.TaskPDFEmail))

	sends := mailer.snapshot()
	require.Len(t, sends, 1)
	require.Equal(t, "Your Website Analysis Report (PDF)", sends[0].subject)
	require.NotNil(t, sends[0].att)
	require.Equal(t, "application/pdf", sends[0].att.ContentType)
	require.True(t, strings.HasPrefix(sends[0].att.Filename, "report_userexamplecom_"))

	// The artifact is also retrievable by email key.
	file, err := store.LatestReport(context.Background(), "userexamplecom")
	require.NoError(t, err)
	require.Equal(t, sends[0].att.Filename, file.Name)
	require.Equal(t, sends[0].att.Content, file.Data)

	// Each figure is persisted alongside the report, named by request id.
	saved := store.saved()
	require.Contains(t, saved, "seo_chart_req-1.png")
	require.Contains(t, saved, "meta_chart_req-1.png")
	require.Contains(t, saved, "performance_chart_req-1.png")
}

func TestProcessFailureEmitsFailedLeg(t *testing.T) {
	t.Parallel()

	mailer := &fakeMailer{fail: true}
	emitter := &captureEmitter{}
	w, _ := newWorker(t, mailer, emitter)

	w.Process(context.Background(), testTask(analyzer.TaskTextEmail))

	require.Equal(t, []progress.Stage{progress.StageLegStart, progress.StageLegFailed}, emitter.stages())
	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	require.Equal(t, "smtp refused", emitter.events[1].Note)
}

func TestPDFLegSurvivesChartFailure(t *testing.T) {
	t.Parallel()

	mailer := &fakeMailer{}
	emitter := &captureEmitter{}
	clock := &fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := storagemem.NewReportStore(clock)
	w := New(queuemem.NewQueue(4), mailer, &fakeCharts{fail: true}, fakePDF{}, store, clock, emitter, zaptest.NewLogger(t))

	w.Process(context.Background(), testTask(analyzer.TaskPDFEmail))

	require.Len(t, mailer.snapshot(), 1)
	require.Equal(t, []progress.Stage{progress.StageLegStart, progress.StageLegSent}, emitter.stages())
}

func TestRunConsumesUntilCancel(t *testing.T) {
	t.Parallel()

	mailer := &fakeMailer{}
	emitter := &captureEmitter{}
	clock := &fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := storagemem.NewReportStore(clock)
	queue := queuemem.NewQueue(4)
	w := New(queue, mailer, &fakeCharts{}, fakePDF{}, store, clock, emitter, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.NoError(t, queue.Enqueue(ctx, testTask(analyzer.TaskTextEmail)))
	require.NoError(t, queue.Enqueue(ctx, testTask(analyzer.TaskPDFEmail)))

	require.Eventually(t, func() bool {
		return len(mailer.snapshot()) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
