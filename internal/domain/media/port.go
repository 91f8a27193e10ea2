package media

import (
	"context"
	"image"
	"io"
	"time"

	"github.com/bryanwahyu/storelens/internal/domain/store"
)

// Source opens the raw bytes of an asset on behalf of tenant. Sources
// refuse locations the tenant does not own.
type Source interface {
	Open(ctx context.Context, tenant string, asset store.MediaAsset) (io.ReadCloser, error)
}

// FeatureCache stores extracted features. Keys are tenant-scoped asset ids
// (see CacheKey); assets are immutable so an entry is written once.
type FeatureCache interface {
	Get(ctx context.Context, key string) (AssetFeatures, bool, error)
	Set(ctx context.Context, key string, f AssetFeatures) error
}

// CacheKey scopes an asset id to its tenant.
func CacheKey(tenant, assetID string) string {
	return tenant + "/" + assetID
}

// FrameSampler decodes a video into a sequence of still frames.
type FrameSampler interface {
	Sample(ctx context.Context, req SampleRequest) (SampleResult, error)
}

// SampleRequest for FrameSampler
type SampleRequest struct {
	AssetID   string
	Video     io.Reader
	FrameRate float64 // frames per second to keep
	MaxFrames int
}

// SampleResult of FrameSampler
type SampleResult struct {
	Frames     []image.Image
	Interval   time.Duration // time between consecutive frames
	DurationMS int64         // wall time spent sampling
}
