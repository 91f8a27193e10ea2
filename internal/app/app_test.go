package app

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bryanwahyu/storelens/internal/application"
	appanalysis "github.com/bryanwahyu/storelens/internal/application/analysis"
	"github.com/bryanwahyu/storelens/internal/config"
	"github.com/bryanwahyu/storelens/internal/domain/ai"
	"github.com/bryanwahyu/storelens/internal/domain/analysis"
	"github.com/bryanwahyu/storelens/internal/domain/store"
	"github.com/bryanwahyu/storelens/internal/infra/ai/openai"
	"github.com/bryanwahyu/storelens/internal/infra/notify"
)

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("AI_API_KEY", "")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	dir := t.TempDir()
	cfg.Database.Path = filepath.Join(dir, "reports.db")
	cfg.Export.Dir = filepath.Join(dir, "exports")
	cfg.Media.LocalRoot = dir
	cfg.Media.WorkDir = filepath.Join(dir, "work")
	cfg.Media.FFmpegPath = "storelens-no-such-ffmpeg"
	return cfg
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{200, 180, 90, 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestBuildOfflineRunsEndToEnd(t *testing.T) {
	cfg := localConfig(t)
	writePNG(t, filepath.Join(cfg.Media.LocalRoot, "front.png"))

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	a, err := Build(context.Background(), cfg, zaptest.NewLogger(t), Options{Clock: application.FixedClock{T: now}})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })

	assert.Nil(t, a.Objects)
	assert.Contains(t, a.Ready, "database")
	require.NoError(t, a.Ready["database"].Check(context.Background()))

	res, err := a.Service.Analyze(context.Background(), appanalysis.AnalyzeCommand{
		TenantID: "acme",
		Tier:     store.TierBasic,
		Profile: store.StoreProfile{
			ID:   "s1",
			Name: "Corner Shop",
			Size: store.Float(80),
			Media: []store.MediaAsset{
				{ID: "front", URI: "front.png", MimeType: "image/png"},
				{ID: "clip", URI: "clip.mp4", MimeType: "video/mp4"},
			},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Report)

	rep := res.Report
	assert.Equal(t, len(analysis.SectionKinds), rep.CountByProvenance(analysis.ProvenanceFallback))
	assert.Zero(t, rep.CountByProvenance(analysis.ProvenanceRemote))
	// the video has no sampler, the image still counts
	require.Len(t, rep.Warnings, 1)
	assert.Equal(t, "clip", rep.Warnings[0].AssetID)

	require.NotEmpty(t, res.ExportURL)
	assert.FileExists(t, res.ExportURL)

	got, err := a.Service.Get(context.Background(), "acme", res.ReportID)
	require.NoError(t, err)
	assert.Equal(t, rep.OverallScore, got.OverallScore)
	assert.True(t, got.CreatedAt.Equal(now))

	_, err = a.Service.Get(context.Background(), "other", res.ReportID)
	assert.ErrorIs(t, err, analysis.ErrReportNotFound)
}

func TestAdapterSelection(t *testing.T) {
	log := zaptest.NewLogger(t)

	assert.IsType(t, ai.Offline{}, remoteClient(config.AIConfig{}, log))
	assert.IsType(t, &openai.Client{}, remoteClient(config.AIConfig{
		APIKey: "k",
		Tiers:  map[string]config.TierModel{"enterprise": {Model: "gpt-4o", MaxTokens: 100}},
	}, log))

	n, err := newNotifier(context.Background(), config.NotifyConfig{Provider: "log"}, log)
	require.NoError(t, err)
	assert.IsType(t, &notify.LogNotifier{}, n)

	c := config.NotifyConfig{Provider: "smtp", From: "reports@example.com"}
	c.SMTP.Host = "localhost"
	n, err = newNotifier(context.Background(), c, log)
	require.NoError(t, err)
	assert.IsType(t, &notify.EmailNotifier{}, n)
}
