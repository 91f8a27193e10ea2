package store

import "strings"

// Tier selects the model budget and whether the expert panel runs.
type Tier string

const (
	TierBasic        Tier = "basic"
	TierProfessional Tier = "professional"
	TierEnterprise   Tier = "enterprise"
)

// Tiers lists every known tier, cheapest first.
var Tiers = []Tier{TierBasic, TierProfessional, TierEnterprise}

func (t Tier) Valid() bool {
	switch t {
	case TierBasic, TierProfessional, TierEnterprise:
		return true
	}
	return false
}

// HasPanel reports whether the expert panel runs for this tier.
func (t Tier) HasPanel() bool {
	return t == TierProfessional || t == TierEnterprise
}

// MediaKind of an uploaded asset
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaAsset is a reference to an uploaded image or video. Never mutated.
type MediaAsset struct {
	ID       string    `json:"id"`
	Kind     MediaKind `json:"kind"`
	URI      string    `json:"uri"`
	MimeType string    `json:"mime_type"`
}

// ResolvedKind derives the kind from the mime type when Kind is not set.
func (a MediaAsset) ResolvedKind() MediaKind {
	mime := strings.ToLower(strings.TrimSpace(a.MimeType))
	switch {
	case strings.HasPrefix(mime, "image/"):
		return MediaImage
	case strings.HasPrefix(mime, "video/"):
		return MediaVideo
	}
	return a.Kind
}

// StoreProfile is the typed input of one analysis run. Optional numeric
// fields are pointers so that "not supplied" differs from zero.
type StoreProfile struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenant_id"`
	Name     string   `json:"store_name"`
	Type     string   `json:"store_type,omitempty"`
	Size     *float64 `json:"store_size,omitempty"` // square meters
	City     string   `json:"city,omitempty"`
	Address  string   `json:"address,omitempty"`

	Length            *float64 `json:"store_length,omitempty"`
	Width             *float64 `json:"store_width,omitempty"`
	CeilingHeight     *float64 `json:"ceiling_height,omitempty"`
	LayoutDescription string   `json:"layout_description,omitempty"`

	PrimaryColors []string `json:"primary_colors,omitempty"`
	LightingType  string   `json:"lighting_type,omitempty"`

	DailyCustomers  *int     `json:"daily_customers,omitempty"`
	AvgDwellMinutes *float64 `json:"avg_dwell_minutes,omitempty"`

	DailySales        *float64 `json:"daily_sales,omitempty"`
	MonthlySales      *float64 `json:"monthly_sales,omitempty"`
	ProductCategories []string `json:"product_categories,omitempty"`

	// Question is the owner's free-text concern, used for keyword matching
	// when no remote analysis is available.
	Question string `json:"question,omitempty"`

	Media []MediaAsset `json:"media,omitempty"`
}

func (p StoreProfile) Images() []MediaAsset {
	return p.mediaOf(MediaImage)
}

func (p StoreProfile) Videos() []MediaAsset {
	return p.mediaOf(MediaVideo)
}

func (p StoreProfile) mediaOf(kind MediaKind) []MediaAsset {
	var out []MediaAsset
	for _, m := range p.Media {
		if m.ResolvedKind() == kind {
			out = append(out, m)
		}
	}
	return out
}

// IsEmpty reports whether nothing at all was supplied.
func (p StoreProfile) IsEmpty() bool {
	return strings.TrimSpace(p.Name) == "" &&
		strings.TrimSpace(p.Type) == "" &&
		p.Size == nil &&
		strings.TrimSpace(p.City) == "" &&
		strings.TrimSpace(p.Address) == "" &&
		p.Length == nil && p.Width == nil && p.CeilingHeight == nil &&
		strings.TrimSpace(p.LayoutDescription) == "" &&
		len(p.PrimaryColors) == 0 &&
		strings.TrimSpace(p.LightingType) == "" &&
		p.DailyCustomers == nil && p.AvgDwellMinutes == nil &&
		p.DailySales == nil && p.MonthlySales == nil &&
		len(p.ProductCategories) == 0 &&
		strings.TrimSpace(p.Question) == "" &&
		len(p.Media) == 0
}

// Float and Int build optional fields.
func Float(v float64) *float64 { return &v }

func Int(v int) *int { return &v }
