package export

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/bryanwahyu/storelens/internal/domain/analysis"
)

// ObjectWriter is the part of the object store the exporter needs.
type ObjectWriter interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	URL(key string) string
}

// ObjectExporter uploads the rendered report to the object store.
type ObjectExporter struct {
	store    ObjectWriter
	renderer *Renderer
}

func NewObjectExporter(store ObjectWriter, renderer *Renderer) *ObjectExporter {
	return &ObjectExporter{store: store, renderer: renderer}
}

// Key is the object key of a report export.
func Key(r *analysis.AnalysisReport) string {
	return fmt.Sprintf("reports/%s/%s/%s.html", r.TenantID, r.StoreID, r.ID)
}

func (e *ObjectExporter) Export(ctx context.Context, r *analysis.AnalysisReport) (string, error) {
	body, err := e.renderer.Render(r)
	if err != nil {
		return "", err
	}
	key := Key(r)
	if _, err := e.store.Put(ctx, key, bytes.NewReader(body), int64(len(body)), "text/html; charset=utf-8"); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return e.store.URL(key), nil
}
