package store

import (
	"fmt"
	"strings"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a profile cannot be analyzed at all.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid store profile: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate rejects malformed input before any remote call is attempted.
// Every violation is reported, not just the first one.
func Validate(p StoreProfile, tier Tier) error {
	verr := &ValidationError{}

	if strings.TrimSpace(p.Name) == "" {
		verr.add("store_name", "is required")
	}
	if !tier.Valid() {
		verr.add("tier", "unknown tier %q", tier)
	}
	if p.Size != nil && *p.Size <= 0 {
		verr.add("store_size", "must be greater than zero")
	}

	nonNegative := []struct {
		field string
		v     *float64
	}{
		{"store_length", p.Length},
		{"store_width", p.Width},
		{"ceiling_height", p.CeilingHeight},
		{"avg_dwell_minutes", p.AvgDwellMinutes},
		{"daily_sales", p.DailySales},
		{"monthly_sales", p.MonthlySales},
	}
	for _, n := range nonNegative {
		if n.v != nil && *n.v < 0 {
			verr.add(n.field, "must not be negative")
		}
	}
	if p.DailyCustomers != nil && *p.DailyCustomers < 0 {
		verr.add("daily_customers", "must not be negative")
	}

	seen := map[string]bool{}
	for i, m := range p.Media {
		field := fmt.Sprintf("media[%d]", i)
		if strings.TrimSpace(m.ID) == "" {
			verr.add(field+".id", "is required")
		} else if seen[m.ID] {
			verr.add(field+".id", "duplicate asset id %q", m.ID)
		}
		seen[m.ID] = true
		if strings.TrimSpace(m.URI) == "" {
			verr.add(field+".uri", "is required")
		}
		if k := m.ResolvedKind(); k != MediaImage && k != MediaVideo {
			verr.add(field+".mime_type", "unsupported mime type %q", m.MimeType)
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
