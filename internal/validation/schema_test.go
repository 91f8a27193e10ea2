package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisRequest(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	cases := []struct {
		name  string
		body  string
		valid bool
	}{
		{"minimal", `{"profile":{"store_name":"فروشگاه تست"}}`, true},
		{"full", `{"tier":"enterprise","recipient":"a@b.c","profile":{"store_name":"x","store_size":250,
			"daily_customers":120,"product_categories":["لبنیات"],
			"media":[{"id":"m1","uri":"s3://b/k.jpg","mime_type":"image/jpeg"}]}}`, true},
		{"missing profile", `{"tier":"basic"}`, false},
		{"unknown tier", `{"tier":"gold","profile":{}}`, false},
		{"unknown top level field", `{"profile":{},"debug":true}`, false},
		{"size as string", `{"profile":{"store_size":"250"}}`, false},
		{"fractional customers", `{"profile":{"daily_customers":1.5}}`, false},
		{"media without uri", `{"profile":{"media":[{"id":"m1"}]}}`, false},
		{"not json", `{"profile":`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.AnalysisRequest([]byte(tc.body))
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			var serr *SchemaError
			require.True(t, errors.As(err, &serr), "got %v", err)
			assert.NotEmpty(t, serr.Errors)
		})
	}
}
