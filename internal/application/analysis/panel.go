package analysis

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/storelens/internal/application"
	"github.com/bryanwahyu/storelens/internal/application/prompt"
	"github.com/bryanwahyu/storelens/internal/domain/ai"
	domain "github.com/bryanwahyu/storelens/internal/domain/analysis"
	"github.com/bryanwahyu/storelens/internal/domain/store"
	"github.com/bryanwahyu/storelens/internal/metrics"
)

const maxActionItems = 5

// Panel runs the fixed roster of expert personas over all section results.
type Panel struct {
	Client      ai.Client
	Prompts     prompt.Builder
	Fallback    *FallbackEngine
	Personas    []domain.PersonaSpec
	MaxParallel int
	Clock       application.Clock
	Log         *zap.Logger
}

// Run must only be called after every section task has finished. Basic tier
// skips the panel; otherwise every persona gets an opinion, remote or fallback.
func (p *Panel) Run(ctx context.Context, tier store.Tier, profile store.StoreProfile, sections []domain.SectionResult) domain.PanelResult {
	if !tier.HasPanel() {
		return domain.PanelResult{Skipped: true}
	}

	var opinions []domain.ExpertOpinion
	if tier == store.TierEnterprise {
		opinions = p.opinions(ctx, tier, func(spec domain.PersonaSpec) prompt.Prompt {
			return p.Prompts.PersonaReview(spec, profile, sections)
		}, sections)
		phases := p.phases(ctx, tier, profile, sections, opinions)
		return domain.PanelResult{Opinions: opinions, Phases: phases}
	}

	opinions = p.opinions(ctx, tier, func(spec domain.PersonaSpec) prompt.Prompt {
		return p.Prompts.PersonaCombined(spec, profile, sections)
	}, sections)
	return domain.PanelResult{Opinions: opinions}
}

// opinions runs one call per persona concurrently, keeping roster order.
func (p *Panel) opinions(ctx context.Context, tier store.Tier, build func(domain.PersonaSpec) prompt.Prompt,
	sections []domain.SectionResult) []domain.ExpertOpinion {
	out := make([]domain.ExpertOpinion, len(p.Personas))

	var g errgroup.Group
	if p.MaxParallel > 0 {
		g.SetLimit(p.MaxParallel)
	}
	for i, spec := range p.Personas {
		g.Go(func() error {
			pr := build(spec)
			outcome := p.Client.Complete(ctx, ai.CompletionRequest{
				Tier:    tier,
				System:  pr.System,
				Prompt:  pr.User,
				Purpose: "persona:" + string(spec.ID),
			})
			if outcome.OK() {
				out[i] = p.opinionFromText(spec, outcome.Text)
			} else {
				p.Log.Warn("persona fallback",
					zap.String("persona", string(spec.ID)),
					zap.Error(outcome.Failure()))
				out[i] = p.Fallback.Persona(spec, sections)
			}
			metrics.PanelOpinions.WithLabelValues(string(spec.ID), string(out[i].Provenance)).Inc()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (p *Panel) opinionFromText(spec domain.PersonaSpec, text string) domain.ExpertOpinion {
	parsed := parseText(text)
	commentary := strings.Join(parsed.commentary, "\n")
	if commentary == "" {
		commentary = strings.TrimSpace(text)
	}
	actions := parsed.recommendations
	if len(actions) > maxActionItems {
		actions = actions[:maxActionItems]
	}
	return domain.ExpertOpinion{
		Persona:     spec.ID,
		Name:        spec.Name,
		Commentary:  commentary,
		ActionItems: actions,
		Provenance:  domain.ProvenanceRemote,
		CreatedAt:   p.Clock.Now(),
	}
}

// phases runs phases two to six as sequential panel-wide calls; each sees
// the notes of the phases before it.
func (p *Panel) phases(ctx context.Context, tier store.Tier, profile store.StoreProfile,
	sections []domain.SectionResult, opinions []domain.ExpertOpinion) []domain.PhaseNote {
	notes := make([]domain.PhaseNote, 0, len(domain.PanelPhases)-1)
	for _, phase := range domain.PanelPhases[1:] {
		pr := p.Prompts.PanelPhase(phase, p.Personas, profile, sections, opinions, notes)
		outcome := p.Client.Complete(ctx, ai.CompletionRequest{
			Tier:    tier,
			System:  pr.System,
			Prompt:  pr.User,
			Purpose: "phase:" + string(phase),
		})
		if outcome.OK() {
			notes = append(notes, domain.PhaseNote{Phase: phase, Text: outcome.Text, Provenance: domain.ProvenanceRemote})
			continue
		}
		p.Log.Warn("panel phase fallback", zap.String("phase", string(phase)), zap.Error(outcome.Failure()))
		notes = append(notes, p.Fallback.Phase(phase, opinions))
	}
	return notes
}
