package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	importitems "github.com/robinhoalvessb-ui/performance-gest-o/internal/repository/imports"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/importer"
)

type importRequest struct {
	Type           string `json:"type" validate:"required,oneof=students payments"`
	FilePath       string `json:"file_path" validate:"required"`
	BatchSize      int    `json:"batch_size" validate:"gte=0,lte=10000"`
	TimeoutMin     int    `json:"timeout_minutes,omitempty" validate:"gte=0,lte=120"`
	ImportRecordID string `json:"import_record_id"`
}

// Import starts an import in the background and answers 202 at once. The
// outcome lands in the import record and the logs.
func (h *Handlers) Import(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	var req importRequest
	if err := h.decode(w, r, &req); err != nil {
		h.Logger.WithError(err).Warn("[IMPORT][REQ][ERR]")
		h.Error(w, r, err)
		return
	}
	req.FilePath = strings.TrimSpace(req.FilePath)
	if req.BatchSize <= 0 {
		req.BatchSize = 1000
	}

	if req.ImportRecordID != "" && h.Records != nil {
		rec, err := h.Records.Get(r.Context(), req.ImportRecordID)
		if err != nil {
			h.Error(w, r, err)
			return
		}
		if rec.SchoolID != sid {
			h.JSON(w, http.StatusNotFound, map[string]string{"error": importitems.ErrRecordNotFound.Error()})
			return
		}
	}

	timeout := h.ImportTimeout
	if req.TimeoutMin > 0 {
		timeout = time.Duration(req.TimeoutMin) * time.Minute
	}
	job := importer.Request{
		Type:           req.Type,
		FilePath:       req.FilePath,
		BatchSize:      req.BatchSize,
		SchoolID:       sid,
		ImportRecordID: req.ImportRecordID,
	}

	go h.runImport(job, timeout)

	h.JSON(w, http.StatusAccepted, map[string]any{
		"status":           "started",
		"type":             req.Type,
		"file_path":        req.FilePath,
		"batch_size":       req.BatchSize,
		"import_record_id": req.ImportRecordID,
	})
}

func (h *Handlers) runImport(job importer.Request, timeout time.Duration) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log := h.Logger.WithFields(logrus.Fields{"type": job.Type, "path": job.FilePath, "school": job.SchoolID})
	res, err := h.Importer.Import(ctx, job)
	if err != nil {
		log.WithError(err).WithField("took", time.Since(start).String()).Error("[IMPORT][ERR][BG]")
		return
	}
	log.WithFields(logrus.Fields{
		"src":    res.Source,
		"fmt":    res.Format,
		"rows":   res.RowsProcessed,
		"bucket": res.Bucket,
		"key":    res.Key,
		"size":   res.SizeBytes,
		"took":   time.Since(start).String(),
	}).Info("[IMPORT][OK][BG]")
}

// ListImports pages the import records of the school with ?limit=&skip=.
func (h *Handlers) ListImports(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if h.Records == nil {
		h.JSON(w, http.StatusOK, map[string]any{"items": []importitems.Record{}, "total": 0})
		return
	}
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	skip, _ := strconv.ParseInt(r.URL.Query().Get("skip"), 10, 64)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	recs, total, err := h.Records.List(r.Context(), sid, limit, max(skip, 0))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]any{"items": recs, "total": total})
}

func (h *Handlers) GetImport(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if h.Records == nil {
		h.Error(w, r, importitems.ErrRecordNotFound)
		return
	}
	rec, err := h.Records.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if rec.SchoolID != sid {
		h.Error(w, r, importitems.ErrRecordNotFound)
		return
	}
	h.JSON(w, http.StatusOK, rec)
}
