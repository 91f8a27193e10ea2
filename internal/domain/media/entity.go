package media

import "github.com/bryanwahyu/storelens/internal/domain/store"

// ColorShare is one dominant color and the fraction of sampled pixels it covers.
type ColorShare struct {
	Hex   string  `json:"hex"`
	Share float64 `json:"share"`
}

// ImageFeatures are the signals extracted from a single still image.
type ImageFeatures struct {
	Width           int          `json:"width"`
	Height          int          `json:"height"`
	DominantColors  []ColorShare `json:"dominant_colors"`
	Brightness      float64      `json:"brightness"` // mean luma in [0,1]
	Lighting        string       `json:"lighting"`   // dark | balanced | bright
	ShelfLines      int          `json:"shelf_lines"`
	AisleBoundaries int          `json:"aisle_boundaries"`
	EmptySpaceRatio float64      `json:"empty_space_ratio"`
}

// CheckpointDwell is the dwell estimate at one fixed point of the frame grid.
type CheckpointDwell struct {
	Name         string  `json:"name"`
	Row          int     `json:"row"`
	Col          int     `json:"col"`
	DwellSeconds float64 `json:"dwell_seconds"`
}

// VideoFeatures are derived from frame-sampled motion detection.
type VideoFeatures struct {
	FramesSampled    int               `json:"frames_sampled"`
	DurationSeconds  float64           `json:"duration_seconds"`
	Rows             int               `json:"rows"`
	Cols             int               `json:"cols"`
	Heatmap          [][]float64       `json:"heatmap"` // normalized traffic density per cell
	Checkpoints      []CheckpointDwell `json:"checkpoints"`
	CustomerEstimate int               `json:"customer_estimate"`
}

// AssetFeatures is cached per asset id.
type AssetFeatures struct {
	AssetID string          `json:"asset_id"`
	Kind    store.MediaKind `json:"kind"`
	Image   *ImageFeatures  `json:"image,omitempty"`
	Video   *VideoFeatures  `json:"video,omitempty"`
}

// Warning records an asset that degraded to "no visual signal".
type Warning struct {
	AssetID string `json:"asset_id"`
	Reason  string `json:"reason"`
}

// Features is everything extracted for one run, in asset order.
type Features struct {
	Assets   []AssetFeatures `json:"assets"`
	Warnings []Warning       `json:"warnings,omitempty"`
}

func (f Features) Images() []ImageFeatures {
	var out []ImageFeatures
	for _, a := range f.Assets {
		if a.Image != nil {
			out = append(out, *a.Image)
		}
	}
	return out
}

func (f Features) Videos() []VideoFeatures {
	var out []VideoFeatures
	for _, a := range f.Assets {
		if a.Video != nil {
			out = append(out, *a.Video)
		}
	}
	return out
}

// HasSignal reports whether at least one asset produced features.
func (f Features) HasSignal() bool {
	return len(f.Images()) > 0 || len(f.Videos()) > 0
}
