package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/ports"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/backup"
)

const maxRestoreBody = 64 << 20

func (h *Handlers) RunBackup(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	entry, err := h.Backups.Backup(r.Context(), sid, backup.KindManual)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, entry)
}

func (h *Handlers) BackupLogs(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	logs, err := h.Backups.Logs(r.Context(), sid)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if logs == nil {
		logs = []ports.BackupEntry{}
	}
	h.JSON(w, http.StatusOK, logs)
}

// DownloadBackup streams the current snapshot as a backup file.
func (h *Handlers) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	data, _, err := h.Backups.Export(r.Context(), sid)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	name := fmt.Sprintf("backup-%s-%s.json", sid, h.Schools.Today().String())
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Restore replaces the school snapshot with the backup in the body, or with
// a stored backup when ?key= is given.
func (h *Handlers) Restore(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}

	if key := r.URL.Query().Get("key"); key != "" {
		sc, err := h.Backups.RestoreKey(r.Context(), sid, key)
		if err != nil {
			h.Error(w, r, err)
			return
		}
		h.JSON(w, http.StatusOK, map[string]any{"id": sc.ID, "students": len(sc.Students)})
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRestoreBody))
	if err != nil {
		h.Error(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	sc, err := h.Backups.Restore(r.Context(), sid, data)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]any{"id": sc.ID, "students": len(sc.Students)})
}
