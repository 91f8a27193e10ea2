package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePage(t *testing.T) {
	p, s := NormalizePage(0, 0)
	assert.Equal(t, 1, p)
	assert.Equal(t, 20, s)

	p, s = NormalizePage(3, 500)
	assert.Equal(t, 3, p)
	assert.Equal(t, 100, s)
}

func TestNewPage(t *testing.T) {
	pg := NewPage(nil, 2, 10, 21)
	assert.Equal(t, 3, pg.TotalPages)
	assert.NotNil(t, pg.Data)
	assert.Empty(t, pg.Data)
}

func TestReportHelpers(t *testing.T) {
	r := &AnalysisReport{Sections: []SectionResult{
		{Kind: SectionSales, Provenance: ProvenanceRemote},
		{Kind: SectionFinancial, Provenance: ProvenanceFallback},
	}}
	s, ok := r.Section(SectionFinancial)
	assert.True(t, ok)
	assert.Equal(t, ProvenanceFallback, s.Provenance)
	_, ok = r.Section(SectionDesign)
	assert.False(t, ok)
	assert.Equal(t, 1, r.CountByProvenance(ProvenanceRemote))
	assert.Equal(t, 2, SectionCustomerFlow.Index())
	assert.Less(t, PriorityHigh.Rank(), PriorityLow.Rank())
}
