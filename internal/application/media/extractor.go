package media

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	domain "github.com/bryanwahyu/storelens/internal/domain/media"
	"github.com/bryanwahyu/storelens/internal/domain/store"
	"github.com/bryanwahyu/storelens/internal/metrics"
)

var ErrNoSampler = errors.New("no frame sampler configured")

// Config tunes frame sampling and the traffic grid.
type Config struct {
	FrameRate   float64
	MaxFrames   int
	GridRows    int
	GridCols    int
	MaxParallel int
}

func (c Config) withDefaults() Config {
	if c.FrameRate <= 0 {
		c.FrameRate = 1
	}
	if c.MaxFrames <= 0 {
		c.MaxFrames = 120
	}
	if c.GridRows <= 0 {
		c.GridRows = 4
	}
	if c.GridCols <= 0 {
		c.GridCols = 4
	}
	if c.MaxParallel <= 0 {
		c.MaxParallel = 4
	}
	return c
}

// Extractor turns media assets into features. Assets are immutable, so
// results are cached by asset id and concurrent requests for one asset
// share a single computation.
type Extractor struct {
	source  domain.Source
	cache   domain.FeatureCache // optional
	sampler domain.FrameSampler // optional; videos degrade without it
	cfg     Config
	log     *zap.Logger
	group   singleflight.Group
}

func NewExtractor(source domain.Source, cache domain.FeatureCache, sampler domain.FrameSampler, cfg Config, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{
		source:  source,
		cache:   cache,
		sampler: sampler,
		cfg:     cfg.withDefaults(),
		log:     log.With(zap.String("component", "media_extractor")),
	}
}

// Extract never fails: an asset that cannot be processed becomes a warning
// and contributes no signal.
func (e *Extractor) Extract(ctx context.Context, tenant string, assets []store.MediaAsset) domain.Features {
	type slot struct {
		features domain.AssetFeatures
		err      error
	}
	results := make([]slot, len(assets))

	var g errgroup.Group
	g.SetLimit(e.cfg.MaxParallel)
	for i, asset := range assets {
		g.Go(func() error {
			key := domain.CacheKey(tenant, asset.ID)
			v, err, _ := e.group.Do(key, func() (any, error) {
				return e.extractOne(ctx, tenant, key, asset)
			})
			if err != nil {
				results[i].err = err
				return nil
			}
			results[i].features = v.(domain.AssetFeatures)
			return nil
		})
	}
	_ = g.Wait()

	var out domain.Features
	for i, r := range results {
		if r.err != nil {
			out.Warnings = append(out.Warnings, domain.Warning{AssetID: assets[i].ID, Reason: r.err.Error()})
			continue
		}
		out.Assets = append(out.Assets, r.features)
	}
	return out
}

func (e *Extractor) extractOne(ctx context.Context, tenant, key string, asset store.MediaAsset) (domain.AssetFeatures, error) {
	kind := asset.ResolvedKind()

	if e.cache != nil {
		cached, ok, err := e.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.FeatureCacheLookups.WithLabelValues("error").Inc()
			e.log.Warn("feature cache read failed", zap.String("asset_id", asset.ID), zap.Error(err))
		case ok:
			metrics.FeatureCacheLookups.WithLabelValues("hit").Inc()
			metrics.MediaAssets.WithLabelValues(string(kind), "cached").Inc()
			return cached, nil
		default:
			metrics.FeatureCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	f, err := e.compute(ctx, tenant, asset, kind)
	if err != nil {
		metrics.MediaAssets.WithLabelValues(string(kind), "failed").Inc()
		return domain.AssetFeatures{}, err
	}
	metrics.MediaAssets.WithLabelValues(string(kind), "extracted").Inc()

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, f); err != nil {
			e.log.Warn("feature cache write failed", zap.String("asset_id", asset.ID), zap.Error(err))
		}
	}
	return f, nil
}

func (e *Extractor) compute(ctx context.Context, tenant string, asset store.MediaAsset, kind store.MediaKind) (domain.AssetFeatures, error) {
	if kind != store.MediaImage && kind != store.MediaVideo {
		return domain.AssetFeatures{}, fmt.Errorf("unsupported media type %q", asset.MimeType)
	}
	if kind == store.MediaVideo && e.sampler == nil {
		return domain.AssetFeatures{}, ErrNoSampler
	}

	rc, err := e.source.Open(ctx, tenant, asset)
	if err != nil {
		return domain.AssetFeatures{}, fmt.Errorf("open asset: %w", err)
	}
	defer rc.Close()

	out := domain.AssetFeatures{AssetID: asset.ID, Kind: kind}
	if kind == store.MediaImage {
		img, err := DecodeImage(rc)
		if err != nil {
			return domain.AssetFeatures{}, err
		}
		f := AnalyzeImage(img)
		out.Image = &f
		return out, nil
	}

	res, err := e.sampler.Sample(ctx, domain.SampleRequest{
		AssetID:   asset.ID,
		Video:     rc,
		FrameRate: e.cfg.FrameRate,
		MaxFrames: e.cfg.MaxFrames,
	})
	if err != nil {
		return domain.AssetFeatures{}, fmt.Errorf("sample frames: %w", err)
	}
	e.log.Debug("frames sampled",
		zap.String("asset_id", asset.ID),
		zap.Int("frames", len(res.Frames)),
		zap.Int64("duration_ms", res.DurationMS))

	v, err := AnalyzeFrames(res.Frames, res.Interval, e.cfg.GridRows, e.cfg.GridCols)
	if err != nil {
		return domain.AssetFeatures{}, err
	}
	out.Video = &v
	return out, nil
}
