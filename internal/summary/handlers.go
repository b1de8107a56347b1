package summary

import (
	"net/http"
	"time"

	"github.com/cozyhive/backend-pos/internal/common"
)

// Handler exposes daily summary endpoints.
type Handler struct {
	Service *Service
}

// Daily handles GET /api/v1/summary?date=YYYY-MM-DD. The date defaults to
// today when absent.
func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	day, ok := h.parseDate(w, r)
	if !ok {
		return
	}
	report, err := h.Service.Daily(r.Context(), day)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": report})
}

// ExportCSV handles GET /api/v1/summary/export?date=YYYY-MM-DD.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	day, ok := h.parseDate(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="summary-`+day.Format("2006-01-02")+`.csv"`)
	if err := h.Service.ExportCSV(r.Context(), day, w); err != nil {
		// Headers may already be out; log-worthy but nothing to render.
		return
	}
}

func (h *Handler) parseDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return h.Service.now(), true
	}
	day, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "date must be YYYY-MM-DD", nil)
		return time.Time{}, false
	}
	return day, true
}
