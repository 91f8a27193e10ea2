package export

import (
	"context"
	"path/filepath"

	"github.com/bryanwahyu/storelens/internal/domain/analysis"
)

// FileExporter writes the rendered report under Dir/{storeID}/{reportID}.html.
// The write is atomic so a reader never sees a half-written page.
type FileExporter struct {
	Dir      string
	renderer *Renderer
}

func NewFileExporter(dir string, renderer *Renderer) *FileExporter {
	return &FileExporter{Dir: dir, renderer: renderer}
}

func (e *FileExporter) Export(_ context.Context, r *analysis.AnalysisReport) (string, error) {
	body, err := e.renderer.Render(r)
	if err != nil {
		return "", err
	}
	path := filepath.Join(e.Dir, r.StoreID, string(r.ID)+".html")
	if err := atomicWriteFile(path, body, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
