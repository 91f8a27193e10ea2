package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/storelens/internal/application"
	"github.com/bryanwahyu/storelens/internal/application/prompt"
	"github.com/bryanwahyu/storelens/internal/domain/ai"
	domain "github.com/bryanwahyu/storelens/internal/domain/analysis"
	"github.com/bryanwahyu/storelens/internal/domain/media"
	"github.com/bryanwahyu/storelens/internal/domain/store"
	"github.com/bryanwahyu/storelens/internal/metrics"
)

// FeatureExtractor turns media assets into features. Per-asset failures
// come back as warnings inside Features.
type FeatureExtractor interface {
	Extract(ctx context.Context, tenant string, assets []store.MediaAsset) media.Features
}

// RemoteConfidence maps input confidence onto the confidence of remote sections.
type RemoteConfidence struct {
	Min float64
	Max float64
}

func (r RemoteConfidence) For(aggregate float64) float64 {
	return r.Min + (r.Max-r.Min)*clamp(aggregate, 0, 1)
}

// Service implements the analysis use-cases.
// Service is stateless between runs and safe for concurrent use.
type Service struct {
	Validator   *Validator
	Extractor   FeatureExtractor
	Prompts     prompt.Builder
	Client      ai.Client
	Fallback    *FallbackEngine
	Panel       *Panel
	Synth       *Synthesizer
	Reports     domain.ReportRepository
	Exporter    domain.Exporter // optional
	Notifier    domain.Notifier // optional
	Clock       application.Clock
	Log         *zap.Logger
	MaxParallel int
	Remote      RemoteConfidence
}

//
// ==== USE CASES ====
//

// AnalyzeCommand untuk satu analysis run
type AnalyzeCommand struct {
	TenantID  string
	Tier      store.Tier
	Profile   store.StoreProfile
	Recipient string // notification recipient, optional
}

type AnalyzeResult struct {
	RunID      string                 `json:"run_id"`
	ReportID   domain.ReportID        `json:"report_id"`
	Report     *domain.AnalysisReport `json:"report"`
	ExportURL  string                 `json:"export_url,omitempty"`
	DurationMS int64                  `json:"duration_ms"`
}

// Analyze runs the whole pipeline. The only errors it returns are input
// validation, persistence failure, and cancellation of ctx.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (AnalyzeResult, error) {
	return s.analyze(ctx, uuid.NewString(), cmd)
}

// Prepare validates the command and assigns a run id without running it.
// Used by the async path so that input errors are still returned synchronously.
func (s *Service) Prepare(cmd AnalyzeCommand) (string, AnalyzeCommand, error) {
	cmd = normalize(cmd)
	if err := store.Validate(cmd.Profile, cmd.Tier); err != nil {
		return "", cmd, err
	}
	return uuid.NewString(), cmd, nil
}

// AnalyzeUntilDone jalanin analysis dengan context.Background()
// cocok dipanggil dari goroutine di router supaya gak kena context canceled
func (s *Service) AnalyzeUntilDone(runID string, cmd AnalyzeCommand) (AnalyzeResult, error) {
	return s.analyze(context.Background(), runID, cmd)
}

func (s *Service) analyze(ctx context.Context, runID string, cmd AnalyzeCommand) (AnalyzeResult, error) {
	start := s.Clock.Now()
	cmd = normalize(cmd)
	log := s.Log.With(
		zap.String("run_id", runID),
		zap.String("tenant", cmd.TenantID),
		zap.String("store_id", cmd.Profile.ID),
		zap.String("tier", string(cmd.Tier)),
	)

	metrics.AnalysesActive.Inc()
	defer metrics.AnalysesActive.Dec()

	if err := store.Validate(cmd.Profile, cmd.Tier); err != nil {
		log.Info("analysis rejected", zap.Error(err))
		metrics.AnalysisRuns.WithLabelValues(string(cmd.Tier), "rejected").Inc()
		s.notify(ctx, log, cmd, domain.EventFailed, domain.NotificationPayload{RunID: runID, Error: err.Error()})
		return AnalyzeResult{RunID: runID}, err
	}
	log.Info("analysis started", zap.Int("media", len(cmd.Profile.Media)))

	profile := cmd.Profile
	conf := s.Validator.Assess(profile)
	log.Info("input confidence",
		zap.Float64("aggregate", conf.Aggregate),
		zap.Any("missing", conf.Missing))

	var features media.Features
	if len(profile.Media) > 0 && s.Extractor != nil {
		features = s.Extractor.Extract(ctx, cmd.TenantID, profile.Media)
		for _, w := range features.Warnings {
			log.Warn("media feature extraction degraded", zap.String("asset_id", w.AssetID), zap.String("reason", w.Reason))
		}
	}

	sections := s.runSections(ctx, log, cmd.Tier, profile, features, conf)

	// join point: the panel sees every section result
	panel := s.Panel.Run(ctx, cmd.Tier, profile, sections)

	report := s.Synth.Build(SynthesisInput{
		TenantID:   cmd.TenantID,
		Profile:    profile,
		Tier:       cmd.Tier,
		Sections:   sections,
		Panel:      panel,
		Confidence: conf,
		Warnings:   features.Warnings,
	})

	if err := ctx.Err(); err != nil {
		log.Info("analysis canceled, report discarded", zap.Error(err))
		metrics.AnalysisRuns.WithLabelValues(string(cmd.Tier), "canceled").Inc()
		return AnalyzeResult{RunID: runID}, err
	}

	id, err := s.Reports.Save(ctx, profile.ID, report)
	if err != nil {
		log.Error("persist report", zap.Error(err))
		metrics.AnalysisRuns.WithLabelValues(string(cmd.Tier), "failed").Inc()
		s.notify(ctx, log, cmd, domain.EventFailed, domain.NotificationPayload{RunID: runID, Error: "report could not be saved"})
		return AnalyzeResult{RunID: runID}, fmt.Errorf("persist report: %w", err)
	}

	exportURL := ""
	if s.Exporter != nil {
		if url, err := s.Exporter.Export(ctx, report); err != nil {
			log.Warn("report export failed", zap.String("report_id", string(id)), zap.Error(err))
		} else {
			exportURL = url
		}
	}

	elapsed := s.Clock.Now().Sub(start)
	metrics.AnalysisRuns.WithLabelValues(string(cmd.Tier), "completed").Inc()
	metrics.AnalysisDuration.WithLabelValues(string(cmd.Tier)).Observe(elapsed.Seconds())
	log.Info("analysis completed",
		zap.String("report_id", string(id)),
		zap.Float64("overall_score", report.OverallScore),
		zap.Int("remote_sections", report.CountByProvenance(domain.ProvenanceRemote)),
		zap.Int("fallback_sections", report.CountByProvenance(domain.ProvenanceFallback)),
		zap.Duration("duration", elapsed))

	s.notify(ctx, log, cmd, domain.EventCompleted, domain.NotificationPayload{
		RunID:        runID,
		ReportID:     id,
		OverallScore: report.OverallScore,
		Confidence:   conf.Percent(),
		ReportURL:    exportURL,
	})

	return AnalyzeResult{
		RunID:      runID,
		ReportID:   id,
		Report:     report,
		ExportURL:  exportURL,
		DurationMS: elapsed.Milliseconds(),
	}, nil
}

// runSections dispatches the six sections concurrently. Every slot is filled:
// a section whose remote call fails gets a fallback result.
func (s *Service) runSections(ctx context.Context, log *zap.Logger, tier store.Tier, p store.StoreProfile,
	f media.Features, conf domain.ConfidenceScore) []domain.SectionResult {
	results := make([]domain.SectionResult, len(domain.SectionKinds))

	var g errgroup.Group
	if s.MaxParallel > 0 {
		g.SetLimit(s.MaxParallel)
	}
	for i, kind := range domain.SectionKinds {
		g.Go(func() error {
			pr := s.Prompts.Section(kind, p, f)
			started := s.Clock.Now()
			outcome := s.Client.Complete(ctx, ai.CompletionRequest{
				Tier:    tier,
				System:  pr.System,
				Prompt:  pr.User,
				Purpose: string(kind),
			})
			if outcome.OK() {
				results[i] = domain.SectionResult{
					Kind:       kind,
					Text:       outcome.Text,
					Provenance: domain.ProvenanceRemote,
					Confidence: s.Remote.For(conf.Aggregate),
					Model:      outcome.Model,
					CreatedAt:  s.Clock.Now(),
				}
			} else {
				results[i] = s.Fallback.Section(kind, p, f, outcome.Kind())
			}
			metrics.SectionOutcomes.WithLabelValues(string(kind), string(results[i].Provenance)).Inc()
			log.Info("section resolved",
				zap.String("section", string(kind)),
				zap.String("provenance", string(results[i].Provenance)),
				zap.String("error_kind", string(outcome.Kind())),
				zap.Duration("duration", s.Clock.Now().Sub(started)))
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Service) notify(ctx context.Context, log *zap.Logger, cmd AnalyzeCommand, event domain.EventKind, payload domain.NotificationPayload) {
	if s.Notifier == nil {
		return
	}
	payload.TenantID = cmd.TenantID
	payload.StoreID = cmd.Profile.ID
	payload.StoreName = cmd.Profile.Name
	n := domain.Notification{Recipient: cmd.Recipient, Event: event, Payload: payload}

	// a failed run may be failing because ctx is done; the notice still goes out
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.Notifier.Notify(nctx, n); err != nil {
		metrics.Notifications.WithLabelValues(string(event), "error").Inc()
		log.Warn("notification failed", zap.String("event", string(event)), zap.Error(err))
		return
	}
	metrics.Notifications.WithLabelValues(string(event), "sent").Inc()
}

// Get ambil 1 report by id
func (s *Service) Get(ctx context.Context, tenant string, id domain.ReportID) (*domain.AnalysisReport, error) {
	return s.Reports.Get(ctx, tenant, id)
}

// Latest returns the newest report for a store.
func (s *Service) Latest(ctx context.Context, tenant, storeID string) (*domain.AnalysisReport, error) {
	return s.Reports.LatestByStore(ctx, tenant, storeID)
}

// History pages through a store's reports, newest first.
func (s *Service) History(ctx context.Context, tenant, storeID string, page, pageSize int) (domain.Page, error) {
	page, pageSize = domain.NormalizePage(page, pageSize)
	return s.Reports.ListByStore(ctx, tenant, storeID, page, pageSize)
}

// IsInputError reports whether err is an input rejection.
func IsInputError(err error) bool {
	var verr *store.ValidationError
	return errors.As(err, &verr)
}

// normalize fills defaults: basic tier, tenant on the profile, a store id.
func normalize(cmd AnalyzeCommand) AnalyzeCommand {
	if cmd.Tier == "" {
		cmd.Tier = store.TierBasic
	}
	if cmd.Profile.TenantID == "" {
		cmd.Profile.TenantID = cmd.TenantID
	}
	if cmd.Profile.ID == "" {
		cmd.Profile.ID = uuid.NewString()
	}
	return cmd
}
