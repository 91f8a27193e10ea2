package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/bryanwahyu/storelens/internal/application"
	"github.com/bryanwahyu/storelens/internal/application/prompt"
	"github.com/bryanwahyu/storelens/internal/domain/ai"
	domain "github.com/bryanwahyu/storelens/internal/domain/analysis"
	"github.com/bryanwahyu/storelens/internal/domain/media"
	"github.com/bryanwahyu/storelens/internal/domain/store"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// fakeClient answers by purpose; purposes listed in fail get the given error kind.
type fakeClient struct {
	mu    sync.Mutex
	calls []ai.CompletionRequest
	fail  map[string]ai.ErrorKind
	// failAll makes every call fail with this kind when set
	failAll ai.ErrorKind
	text    func(purpose string) string
}

func (c *fakeClient) Complete(ctx context.Context, req ai.CompletionRequest) ai.Outcome {
	c.mu.Lock()
	c.calls = append(c.calls, req)
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		kind, _ := ai.ContextKind(err)
		return ai.Failed(kind, 0, err)
	}
	if c.failAll != "" {
		return ai.Failed(c.failAll, 0, errors.New("remote unavailable"))
	}
	if kind, ok := c.fail[req.Purpose]; ok {
		return ai.Failed(kind, 0, errors.New("remote failed"))
	}
	if c.text != nil {
		return ai.Outcome{Text: c.text(req.Purpose), Model: "test-model"}
	}
	return ai.Outcome{Text: remoteText(req.Purpose), Model: "test-model"}
}

func (c *fakeClient) purposes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.calls))
	for _, r := range c.calls {
		out = append(out, r.Purpose)
	}
	return out
}

func remoteText(purpose string) string {
	if strings.HasPrefix(purpose, "persona:") || strings.HasPrefix(purpose, "phase:") {
		return prompt.HeadingCommentary + "\nنظر متخصص درباره " + purpose + "\n" +
			prompt.HeadingActions + "\n- اقدام اول برای " + purpose + "\n- اقدام دوم\n"
	}
	text := prompt.HeadingStrengths + "\n- نقطه قوت " + purpose + "\n" +
		prompt.HeadingWeaknesses + "\n- نقطه ضعف " + purpose + "\n" +
		prompt.HeadingRecommendations + "\n- پیشنهاد " + purpose + " (حدود 9%)\n"
	if purpose == string(domain.SectionFinancial) {
		text += "\nبازگشت سرمایه: ۴۰٪\nدوره بازگشت: ۸ ماه\n"
	}
	return text
}

type memRepo struct {
	mu      sync.Mutex
	saved   []*domain.AnalysisReport
	saveErr error
}

func (r *memRepo) Save(_ context.Context, storeID string, rep *domain.AnalysisReport) (domain.ReportID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return "", r.saveErr
	}
	r.saved = append(r.saved, rep)
	return rep.ID, nil
}

func (r *memRepo) Get(_ context.Context, tenant string, id domain.ReportID) (*domain.AnalysisReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range r.saved {
		if rep.ID == id && rep.TenantID == tenant {
			return rep, nil
		}
	}
	return nil, domain.ErrReportNotFound
}

func (r *memRepo) LatestByStore(_ context.Context, tenant, storeID string) (*domain.AnalysisReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.saved) - 1; i >= 0; i-- {
		if r.saved[i].TenantID == tenant && r.saved[i].StoreID == storeID {
			return r.saved[i], nil
		}
	}
	return nil, domain.ErrReportNotFound
}

func (r *memRepo) ListByStore(_ context.Context, tenant, storeID string, page, pageSize int) (domain.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AnalysisReport
	for i := len(r.saved) - 1; i >= 0; i-- {
		if r.saved[i].TenantID == tenant && r.saved[i].StoreID == storeID {
			out = append(out, r.saved[i])
		}
	}
	return domain.NewPage(out, page, pageSize, int64(len(out))), nil
}

type recNotifier struct {
	mu     sync.Mutex
	events []domain.Notification
}

func (n *recNotifier) Notify(_ context.Context, note domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, note)
	return nil
}

type stubExtractor struct {
	features media.Features
}

func (s stubExtractor) Extract(context.Context, string, []store.MediaAsset) media.Features {
	return s.features
}

type stubExporter struct{}

func (stubExporter) Export(_ context.Context, r *domain.AnalysisReport) (string, error) {
	return "http://exports/" + string(r.ID) + ".html", nil
}

func newTestService(t *testing.T, client ai.Client, repo *memRepo, notifier *recNotifier) *Service {
	t.Helper()
	clock := application.FixedClock{T: testNow}
	log := zaptest.NewLogger(t)
	fallback := NewFallbackEngine(0.4, clock)
	builder := prompt.NewBuilder("fa", nil)
	return &Service{
		Validator: NewValidator(DefaultThresholds()),
		Extractor: stubExtractor{},
		Prompts:   builder,
		Client:    client,
		Fallback:  fallback,
		Panel: &Panel{
			Client:      client,
			Prompts:     builder,
			Fallback:    fallback,
			Personas:    domain.DefaultPersonas(),
			MaxParallel: 3,
			Clock:       clock,
			Log:         log,
		},
		Synth:       NewSynthesizer(nil, clock),
		Reports:     repo,
		Exporter:    stubExporter{},
		Notifier:    notifier,
		Clock:       clock,
		Log:         log,
		MaxParallel: 6,
		Remote:      RemoteConfidence{Min: 0.6, Max: 0.9},
	}
}

// hangingClient delegates to fakeClient but never answers for the hang
// purpose: that call only returns when its own deadline fires, the way the
// real client bounds every call. Start and finish of every call are logged
// in order.
type hangingClient struct {
	inner   *fakeClient
	hang    string
	perCall time.Duration

	mu     sync.Mutex
	events []string
}

func (c *hangingClient) record(e string) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *hangingClient) Complete(ctx context.Context, req ai.CompletionRequest) ai.Outcome {
	c.record("start:" + req.Purpose)
	defer c.record("done:" + req.Purpose)

	if req.Purpose != c.hang {
		return c.inner.Complete(ctx, req)
	}
	cctx, cancel := context.WithTimeout(ctx, c.perCall)
	defer cancel()
	<-cctx.Done()
	if ctx.Err() != nil {
		kind, _ := ai.ContextKind(ctx.Err())
		return ai.Failed(kind, 0, ctx.Err())
	}
	return ai.Failed(ai.KindTimeout, 0, cctx.Err())
}

func (c *hangingClient) log() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}

// indexOf returns the position of e in events, or -1.
func indexOf(events []string, e string) int {
	for i, v := range events {
		if v == e {
			return i
		}
	}
	return -1
}
