package billing

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/printmine/backend-printshop/internal/common"
	"github.com/printmine/backend-printshop/internal/tenant"
)

// Handler exposes the billing page endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// EditInput is a single-field edit: which field changed and its raw input value.
type EditInput struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

// Get handles GET /admin/bill.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.From(r.Context())
	rows, err := h.Svc.Rows(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}
	total, err := h.Svc.Total(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows, "total": total})
}

// EditRow handles PATCH /admin/bill/rows/{index}.
func (h *Handler) EditRow(w http.ResponseWriter, r *http.Request) {
	var in EditInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(in); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
	}
	index := common.AtoiDefault(chi.URLParam(r, "index"), -1)
	t, _ := tenant.From(r.Context())
	row, total, err := h.Svc.EditField(r.Context(), t, index, in.Field, in.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": row, "total": total})
}

// AddRow handles POST /admin/bill/rows.
func (h *Handler) AddRow(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.From(r.Context())
	rows, err := h.Svc.AddRow(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": rows})
}

// DeleteRow handles DELETE /admin/bill/rows/{index}.
func (h *Handler) DeleteRow(w http.ResponseWriter, r *http.Request) {
	index := common.AtoiDefault(chi.URLParam(r, "index"), -1)
	t, _ := tenant.From(r.Context())
	if err := h.Svc.DeleteRow(r.Context(), t, index); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Save handles POST /admin/bill/save.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.From(r.Context())
	result, err := h.Svc.Save(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
