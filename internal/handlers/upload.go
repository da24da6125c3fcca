package handlers

import (
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/sirupsen/logrus"

	importitems "github.com/robinhoalvessb-ui/performance-gest-o/internal/repository/imports"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/importer"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/transport/auth"
)

// Upload accepts multipart/form-data with `file` and `action` fields, stores
// the file in the bucket and opens an import record for it.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if h.Files == nil {
		h.JSON(w, http.StatusServiceUnavailable, map[string]any{"error": "file storage not configured"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, importer.MaxFileSize+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.Logger.WithError(err).Warn("[UPLOAD][ERR] parse multipart")
		h.JSON(w, http.StatusBadRequest, map[string]any{"error": "bad multipart: " + err.Error()})
		return
	}

	action := r.FormValue("action")
	if action == "" {
		action = r.FormValue("type")
	}
	mt, ok := importitems.ParseModelType(action)
	if !ok {
		h.JSON(w, http.StatusBadRequest, map[string]any{"error": "action must be students or payments"})
		return
	}

	f, fh, err := r.FormFile("file")
	if err != nil {
		h.JSON(w, http.StatusBadRequest, map[string]any{"error": "file is required"})
		return
	}
	defer f.Close()

	fname := path.Base(fh.Filename)
	key := fmt.Sprintf("imports/%s/%d-%s", sid, time.Now().UnixNano(), fname)
	size := fh.Size
	if size <= 0 {
		size = -1
	}

	stored, err := h.Files.PutStream(r.Context(), key, f, size, fh.Header.Get("Content-Type"))
	if err != nil {
		h.Error(w, r, err)
		return
	}

	bucket := h.Files.Name()
	s3path := fmt.Sprintf("s3://%s/%s", bucket, key)
	resp := map[string]any{"path": s3path}

	if h.Records != nil {
		rec := importitems.Record{
			SchoolID:  sid,
			Status:    importitems.RecordStatusParsed,
			Type:      string(mt),
			Path:      &s3path,
			Bucket:    &bucket,
			Key:       &key,
			SizeBytes: &stored,
		}
		if userID, errGet := auth.GetUserID(r.Context()); errGet == nil {
			rec.UserID = &userID
		}
		id, err := h.Records.Create(r.Context(), rec)
		if err != nil {
			h.Error(w, r, err)
			return
		}
		resp["id"] = id
	}

	h.Logger.WithFields(logrus.Fields{"school": sid, "key": key, "size": stored}).Info("[UPLOAD][DONE]")
	h.JSON(w, http.StatusCreated, resp)
}
