package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/storelens/internal/application"
	"github.com/bryanwahyu/storelens/internal/application/prompt"
	"github.com/bryanwahyu/storelens/internal/domain/ai"
	domain "github.com/bryanwahyu/storelens/internal/domain/analysis"
	"github.com/bryanwahyu/storelens/internal/domain/media"
	"github.com/bryanwahyu/storelens/internal/domain/store"
)

func TestFallbackCompleteness(t *testing.T) {
	e := NewFallbackEngine(0.4, application.FixedClock{T: testNow})
	profiles := map[string]store.StoreProfile{
		"name only": {Name: "فروشگاه تست", Size: store.Float(250)},
		"complete":  completeProfile(),
		"empty":     {},
	}

	for name, p := range profiles {
		for _, kind := range domain.SectionKinds {
			t.Run(name+"/"+string(kind), func(t *testing.T) {
				res := e.Section(kind, p, media.Features{}, ai.KindTimeout)

				assert.Equal(t, kind, res.Kind)
				assert.Equal(t, domain.ProvenanceFallback, res.Provenance)
				assert.NotEmpty(t, res.Text)
				assert.GreaterOrEqual(t, res.Confidence, 0.3)
				assert.LessOrEqual(t, res.Confidence, 0.5)
				assert.Equal(t, string(ai.KindTimeout), res.ErrorKind)
				assert.Equal(t, testNow, res.CreatedAt)

				parsed := parseText(res.Text)
				assert.NotEmpty(t, parsed.strengths)
				assert.NotEmpty(t, parsed.weaknesses)
				assert.NotEmpty(t, parsed.recommendations)
			})
		}
	}
}

func TestFallbackConfidenceClamped(t *testing.T) {
	assert.Equal(t, 0.5, NewFallbackEngine(0.9, nil).Confidence)
	assert.Equal(t, 0.3, NewFallbackEngine(0.1, nil).Confidence)
}

func TestFallbackFinancialUsesIndustryAverage(t *testing.T) {
	e := NewFallbackEngine(0.4, nil)
	res := e.Section(domain.SectionFinancial, store.StoreProfile{Name: "a"}, media.Features{}, ai.KindStatus)

	assert.Contains(t, res.Text, prompt.ROILabel+": 25%")
	roi, ok := parseROI(res.Text)
	require.True(t, ok)
	assert.Equal(t, IndustryROI, roi)
	for _, r := range parseText(res.Text).recommendations {
		assert.NotContains(t, r, "میانگین صنعت")
	}
}

func TestFallbackKeywordMatching(t *testing.T) {
	e := NewFallbackEngine(0.4, nil)
	p := store.StoreProfile{Name: "a", Question: "جلوی صندوق خیلی شلوغ می‌شود"}

	res := e.Section(domain.SectionCustomerFlow, p, media.Features{}, ai.KindNetwork)
	assert.Contains(t, res.Text, "مسیر صف صندوق")

	other := e.Section(domain.SectionDesign, p, media.Features{}, ai.KindNetwork)
	assert.NotContains(t, other.Text, "مسیر صف صندوق")
}

func TestFallbackUsesMediaSignals(t *testing.T) {
	e := NewFallbackEngine(0.4, nil)
	f := media.Features{Assets: []media.AssetFeatures{{
		AssetID: "i1",
		Image:   &media.ImageFeatures{Brightness: 0.2, EmptySpaceRatio: 0.6},
	}}}
	p := store.StoreProfile{Name: "a"}

	design := e.Section(domain.SectionDesign, p, f, ai.KindEmpty)
	assert.Contains(t, design.Text, "کم‌نور")

	current := e.Section(domain.SectionCurrentCondition, p, f, ai.KindEmpty)
	assert.Contains(t, current.Text, "فضای خالی")
}

func TestFallbackPersonaAndPhase(t *testing.T) {
	e := NewFallbackEngine(0.4, nil)
	p := store.StoreProfile{Name: "a"}
	var sections []domain.SectionResult
	for _, k := range domain.SectionKinds {
		sections = append(sections, e.Section(k, p, media.Features{}, ai.KindTimeout))
	}

	for _, spec := range domain.DefaultPersonas() {
		op := e.Persona(spec, sections)
		assert.Equal(t, spec.ID, op.Persona)
		assert.Equal(t, domain.ProvenanceFallback, op.Provenance)
		assert.Contains(t, op.Commentary, spec.Name)
		assert.NotEmpty(t, op.ActionItems)
		assert.LessOrEqual(t, len(op.ActionItems), 3)
	}

	for _, ph := range domain.PanelPhases[1:] {
		note := e.Phase(ph, []domain.ExpertOpinion{{ActionItems: []string{"x"}}})
		assert.Equal(t, ph, note.Phase)
		assert.NotEmpty(t, note.Text)
	}
}
