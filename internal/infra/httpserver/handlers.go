package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appanalysis "github.com/bryanwahyu/storelens/internal/application/analysis"
	"github.com/bryanwahyu/storelens/internal/domain/analysis"
	"github.com/bryanwahyu/storelens/internal/domain/store"
	"github.com/bryanwahyu/storelens/internal/infra/storage"
	"github.com/bryanwahyu/storelens/internal/middleware"
)

const maxBodyBytes = 1 << 20

type analyzeRequest struct {
	Tier      store.Tier         `json:"tier"`
	Recipient string             `json:"recipient"`
	Profile   store.StoreProfile `json:"profile"`
}

// POST /v1/{tenant}/analyses[?async=true]
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")

	body, err := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes+1))
	if err != nil {
		return err
	}
	if len(body) > maxBodyBytes {
		return &httpError{code: http.StatusRequestEntityTooLarge, msg: "request body too large"}
	}
	if r.schema != nil {
		if err := r.schema.AnalysisRequest(body); err != nil {
			return err
		}
	}
	var in analyzeRequest
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&in); err != nil {
		return badRequest("invalid JSON body")
	}

	cmd := appanalysis.AnalyzeCommand{
		TenantID:  tenant,
		Tier:      in.Tier,
		Profile:   in.Profile,
		Recipient: middleware.SanitizeString(in.Recipient),
	}
	cmd.Profile.TenantID = tenant

	if async, _ := strconv.ParseBool(req.URL.Query().Get("async")); async {
		return r.analyzeAsync(w, cmd)
	}

	res, err := r.svc.Analyze(req.Context(), cmd)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, res)
}

// analyzeAsync validates synchronously, then runs on a background context so
// the run survives the request. The outcome reaches the caller through the notifier.
func (r *Router) analyzeAsync(w http.ResponseWriter, cmd appanalysis.AnalyzeCommand) error {
	runID, cmd, err := r.svc.Prepare(cmd)
	if err != nil {
		return err
	}

	go func() {
		res, err := r.svc.AnalyzeUntilDone(runID, cmd)
		if err != nil {
			r.log.Warn("background analysis failed",
				zap.String("run_id", runID),
				zap.String("tenant", cmd.TenantID),
				zap.Error(err))
			return
		}
		r.log.Info("background analysis finished",
			zap.String("run_id", runID),
			zap.String("report_id", string(res.ReportID)))
	}()

	return writeJSON(w, http.StatusAccepted, map[string]any{
		"status":   "queued",
		"run_id":   runID,
		"tenant":   cmd.TenantID,
		"store_id": cmd.Profile.ID,
		"tier":     cmd.Tier,
		"queuedAt": time.Now().UTC(),
	})
}

// GET /v1/{tenant}/analyses/{reportID}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "reportID")
	if err := middleware.ValidateReportID(id); err != nil {
		return badRequest(err.Error())
	}

	rep, err := r.svc.Get(req.Context(), tenant, analysis.ReportID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rep)
}

// GET /v1/{tenant}/stores/{storeID}/analyses?page=&page_size=
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	storeID := chi.URLParam(req, "storeID")
	if err := middleware.ValidateStoreID(storeID); err != nil {
		return badRequest(err.Error())
	}
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.svc.History(req.Context(), tenant, storeID,
		middleware.ValidatePage(page), middleware.ValidatePageSize(size))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/{tenant}/stores/{storeID}/analyses/latest
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	storeID := chi.URLParam(req, "storeID")
	if err := middleware.ValidateStoreID(storeID); err != nil {
		return badRequest(err.Error())
	}

	rep, err := r.svc.Latest(req.Context(), tenant, storeID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rep)
}

// POST /v1/{tenant}/media (multipart, field "file")
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	if r.media == nil {
		return &httpError{code: http.StatusServiceUnavailable, msg: "media storage is not configured"}
	}
	tenant := chi.URLParam(req, "tenant")

	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	file, hdr, err := req.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &httpError{code: http.StatusRequestEntityTooLarge, msg: "upload too large"}
		}
		return badRequest("multipart field \"file\" is required")
	}
	defer file.Close()

	declared := hdr.Header.Get("Content-Type")
	if declared == "" || strings.HasPrefix(declared, "application/octet-stream") {
		head := make([]byte, 512)
		n, _ := io.ReadFull(file, head)
		declared = http.DetectContentType(head[:n])
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return err
		}
	}
	mime, err := middleware.ValidateUploadType(declared)
	if err != nil {
		return &httpError{code: http.StatusUnsupportedMediaType, msg: err.Error()}
	}

	id := uuid.NewString()
	key := storage.MediaKey(tenant, id+strings.ToLower(filepath.Ext(hdr.Filename)))
	uri, err := r.media.Put(req.Context(), key, file, hdr.Size, mime)
	if err != nil {
		return err
	}

	asset := store.MediaAsset{ID: id, URI: uri, MimeType: mime}
	asset.Kind = asset.ResolvedKind()
	r.log.Info("media uploaded",
		zap.String("tenant", tenant),
		zap.String("asset_id", id),
		zap.String("mime_type", mime),
		zap.Int64("size", hdr.Size))
	return writeJSON(w, http.StatusCreated, asset)
}
