package report

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/printmine/backend-printshop/internal/common"
	"github.com/printmine/backend-printshop/internal/tenant"
)

// Handler exposes the daily report endpoints.
type Handler struct {
	Svc *Service
}

// Daily handles GET /admin/report/daily.
func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.From(r.Context())
	rows, err := h.Svc.Daily(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// AddManual handles POST /admin/report/manual.
func (h *Handler) AddManual(w http.ResponseWriter, r *http.Request) {
	var entry ManualEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	t, _ := tenant.From(r.Context())
	rows, err := h.Svc.AddManual(r.Context(), t, entry)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": rows})
}

// DeleteManual handles DELETE /admin/report/manual/{index}.
func (h *Handler) DeleteManual(w http.ResponseWriter, r *http.Request) {
	index := common.AtoiDefault(chi.URLParam(r, "index"), -1)
	t, _ := tenant.From(r.Context())
	rows, err := h.Svc.DeleteManual(r.Context(), t, index)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
