package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/storelens/internal/domain/ai"
	domain "github.com/bryanwahyu/storelens/internal/domain/analysis"
	"github.com/bryanwahyu/storelens/internal/domain/media"
	"github.com/bryanwahyu/storelens/internal/domain/store"
)

func TestAnalyzeNameOnlyWithRemoteDown(t *testing.T) {
	repo := &memRepo{}
	notifier := &recNotifier{}
	svc := newTestService(t, &fakeClient{failAll: ai.KindTimeout}, repo, notifier)

	res, err := svc.Analyze(context.Background(), AnalyzeCommand{
		TenantID:  "acme",
		Profile:   store.StoreProfile{ID: "s1", Name: "فروشگاه تست", Size: store.Float(250)},
		Recipient: "owner@example.com",
	})
	require.NoError(t, err)
	rep := res.Report
	require.NotNil(t, rep)

	assert.Equal(t, store.TierBasic, rep.Tier)
	require.Len(t, rep.Sections, 6)
	for i, sec := range rep.Sections {
		assert.Equal(t, domain.SectionKinds[i], sec.Kind)
		assert.Equal(t, domain.ProvenanceFallback, sec.Provenance)
		assert.Equal(t, string(ai.KindTimeout), sec.ErrorKind)
	}
	assert.Equal(t, 40.0, rep.OverallScore)
	assert.InDelta(t, 0.3, rep.Confidence.Aggregate, 0.001)
	assert.Contains(t, rep.Caveat, "confidence 30%")
	assert.True(t, rep.Panel.Skipped)
	assert.NotEmpty(t, rep.Recommendations)
	assert.Equal(t, domain.BasisIndustryAverage, rep.Financial.Basis)

	require.Len(t, repo.saved, 1)
	assert.Equal(t, "acme", repo.saved[0].TenantID)

	require.Len(t, notifier.events, 1)
	ev := notifier.events[0]
	assert.Equal(t, domain.EventCompleted, ev.Event)
	assert.Equal(t, "owner@example.com", ev.Recipient)
	assert.Equal(t, 30, ev.Payload.Confidence)
	assert.Equal(t, res.ReportID, ev.Payload.ReportID)
	assert.Equal(t, res.ExportURL, ev.Payload.ReportURL)
	assert.Equal(t, "http://exports/"+string(res.ReportID)+".html", res.ExportURL)
}

func TestAnalyzeFinancialTimeout(t *testing.T) {
	repo := &memRepo{}
	client := &fakeClient{fail: map[string]ai.ErrorKind{string(domain.SectionFinancial): ai.KindTimeout}}
	svc := newTestService(t, client, repo, &recNotifier{})

	res, err := svc.Analyze(context.Background(), AnalyzeCommand{TenantID: "acme", Profile: completeProfile()})
	require.NoError(t, err)
	rep := res.Report

	assert.Equal(t, 5, rep.CountByProvenance(domain.ProvenanceRemote))
	assert.Equal(t, 1, rep.CountByProvenance(domain.ProvenanceFallback))

	fin, ok := rep.Section(domain.SectionFinancial)
	require.True(t, ok)
	assert.Equal(t, domain.ProvenanceFallback, fin.Provenance)
	assert.Equal(t, string(ai.KindTimeout), fin.ErrorKind)
	assert.Equal(t, domain.BasisIndustryAverage, rep.Financial.Basis)
	assert.Equal(t, IndustryROI, rep.Financial.ROIPercent)

	sales, ok := rep.Section(domain.SectionSales)
	require.True(t, ok)
	assert.Equal(t, "test-model", sales.Model)

	agg := rep.Confidence.Aggregate
	remote := 0.6 + 0.3*agg
	assert.InDelta(t, remote, sales.Confidence, 0.0001)
	assert.InDelta(t, round1((5*remote+0.4)/6*100), rep.OverallScore, 0.001)
}

func TestAnalyzeRemoteFinancialIsStoreSpecific(t *testing.T) {
	svc := newTestService(t, &fakeClient{}, &memRepo{}, &recNotifier{})

	res, err := svc.Analyze(context.Background(), AnalyzeCommand{TenantID: "acme", Profile: completeProfile()})
	require.NoError(t, err)
	assert.Equal(t, domain.BasisStoreSpecific, res.Report.Financial.Basis)
	assert.Equal(t, 40.0, res.Report.Financial.ROIPercent)
	assert.Equal(t, 8.0, res.Report.Financial.PaybackMonths)
}

func TestAnalyzeProfessionalRunsPanel(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(t, client, &memRepo{}, &recNotifier{})

	res, err := svc.Analyze(context.Background(), AnalyzeCommand{
		TenantID: "acme",
		Tier:     store.TierProfessional,
		Profile:  completeProfile(),
	})
	require.NoError(t, err)
	assert.False(t, res.Report.Panel.Skipped)
	assert.Len(t, res.Report.Panel.Opinions, 5)
	assert.Empty(t, res.Report.Panel.Phases)
	assert.Len(t, client.purposes(), 11)
}

func TestAnalyzeHungSectionTimesOutAlone(t *testing.T) {
	hung := string(domain.SectionCustomerFlow)
	client := &hangingClient{inner: &fakeClient{}, hang: hung, perCall: 200 * time.Millisecond}
	svc := newTestService(t, client, &memRepo{}, &recNotifier{})

	start := time.Now()
	res, err := svc.Analyze(context.Background(), AnalyzeCommand{TenantID: "acme", Profile: completeProfile()})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	for _, sec := range res.Report.Sections {
		if string(sec.Kind) == hung {
			assert.Equal(t, domain.ProvenanceFallback, sec.Provenance)
			assert.Equal(t, string(ai.KindTimeout), sec.ErrorKind)
			continue
		}
		assert.Equal(t, domain.ProvenanceRemote, sec.Provenance, sec.Kind)
	}

	// every other section started and finished while the hung call was pending
	events := client.log()
	hungDone := indexOf(events, "done:"+hung)
	require.NotEqual(t, -1, hungDone)
	for _, kind := range domain.SectionKinds {
		if string(kind) == hung {
			continue
		}
		assert.Less(t, indexOf(events, "start:"+string(kind)), hungDone, kind)
		assert.Less(t, indexOf(events, "done:"+string(kind)), hungDone, kind)
	}
}

func TestAnalyzePanelWaitsForAllSections(t *testing.T) {
	hung := string(domain.SectionFinancial)
	client := &hangingClient{inner: &fakeClient{}, hang: hung, perCall: 150 * time.Millisecond}
	svc := newTestService(t, client, &memRepo{}, &recNotifier{})

	res, err := svc.Analyze(context.Background(), AnalyzeCommand{
		TenantID: "acme",
		Tier:     store.TierProfessional,
		Profile:  completeProfile(),
	})
	require.NoError(t, err)
	require.Len(t, res.Report.Panel.Opinions, 5)

	events := client.log()
	lastSection := -1
	for _, kind := range domain.SectionKinds {
		i := indexOf(events, "done:"+string(kind))
		require.NotEqual(t, -1, i, kind)
		lastSection = max(lastSection, i)
	}
	personaCalls := 0
	for i, e := range events {
		if strings.HasPrefix(e, "start:persona:") || strings.HasPrefix(e, "start:phase:") {
			personaCalls++
			assert.Greater(t, i, lastSection, e)
		}
	}
	assert.Equal(t, 5, personaCalls)
}

func TestAnalyzeRejectsInvalidProfile(t *testing.T) {
	repo := &memRepo{}
	notifier := &recNotifier{}
	client := &fakeClient{}
	svc := newTestService(t, client, repo, notifier)

	_, err := svc.Analyze(context.Background(), AnalyzeCommand{TenantID: "acme", Profile: store.StoreProfile{Name: "  "}})
	require.Error(t, err)
	assert.True(t, IsInputError(err))
	assert.Empty(t, repo.saved)
	assert.Empty(t, client.purposes())

	require.Len(t, notifier.events, 1)
	assert.Equal(t, domain.EventFailed, notifier.events[0].Event)
	assert.NotEmpty(t, notifier.events[0].Payload.Error)
}

func TestAnalyzeCanceledDiscardsReport(t *testing.T) {
	repo := &memRepo{}
	notifier := &recNotifier{}
	svc := newTestService(t, &fakeClient{}, repo, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Analyze(ctx, AnalyzeCommand{TenantID: "acme", Profile: completeProfile()})

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsInputError(err))
	assert.Empty(t, repo.saved)
	assert.Empty(t, notifier.events)
}

func TestAnalyzePersistFailure(t *testing.T) {
	repo := &memRepo{saveErr: errors.New("disk full")}
	notifier := &recNotifier{}
	svc := newTestService(t, &fakeClient{}, repo, notifier)

	_, err := svc.Analyze(context.Background(), AnalyzeCommand{TenantID: "acme", Profile: completeProfile()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist report")
	assert.False(t, IsInputError(err))

	require.Len(t, notifier.events, 1)
	assert.Equal(t, domain.EventFailed, notifier.events[0].Event)
}

func TestAnalyzeCarriesMediaWarnings(t *testing.T) {
	svc := newTestService(t, &fakeClient{}, &memRepo{}, &recNotifier{})
	svc.Extractor = stubExtractor{features: media.Features{
		Warnings: []media.Warning{{AssetID: "v1", Reason: "frame sampler unavailable"}},
	}}

	res, err := svc.Analyze(context.Background(), AnalyzeCommand{TenantID: "acme", Profile: completeProfile()})
	require.NoError(t, err)
	require.Len(t, res.Report.Warnings, 1)
	assert.Equal(t, "v1", res.Report.Warnings[0].AssetID)
}

func TestPrepareAndHistory(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(t, &fakeClient{}, repo, nil)
	svc.Notifier = nil

	runID, cmd, err := svc.Prepare(AnalyzeCommand{TenantID: "acme", Profile: store.StoreProfile{Name: "a"}})
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
	assert.NotEmpty(t, cmd.Profile.ID)
	assert.Equal(t, store.TierBasic, cmd.Tier)
	assert.Equal(t, "acme", cmd.Profile.TenantID)

	_, _, err = svc.Prepare(AnalyzeCommand{Profile: store.StoreProfile{Name: "a"}, Tier: "gold"})
	assert.True(t, IsInputError(err))

	for i := 0; i < 2; i++ {
		res, err := svc.AnalyzeUntilDone(runID, cmd)
		require.NoError(t, err)
		assert.Equal(t, runID, res.RunID)
	}

	page, err := svc.History(context.Background(), "acme", cmd.Profile.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.EqualValues(t, 2, page.Total)

	latest, err := svc.Latest(context.Background(), "acme", cmd.Profile.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.saved[1].ID, latest.ID)

	_, err = svc.Get(context.Background(), "other-tenant", latest.ID)
	assert.ErrorIs(t, err, domain.ErrReportNotFound)
}
