package stock

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/printmine/backend-printshop/internal/common"
	"github.com/printmine/backend-printshop/internal/tenant"
)

// Handler exposes admin stock ledger endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// List handles GET /admin/stock.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.From(r.Context())
	categories, err := h.Svc.List(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": withRemaining(categories)})
}

// Add handles POST /admin/stock.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	t, _ := tenant.From(r.Context())
	categories, err := h.Svc.Add(r.Context(), t, in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": withRemaining(categories)})
}

// Update handles PUT /admin/stock/{index}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	index := common.AtoiDefault(chi.URLParam(r, "index"), -1)
	t, _ := tenant.From(r.Context())
	category, err := h.Svc.Update(r.Context(), t, index, in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": category})
}

// Delete handles DELETE /admin/stock/{index}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	index := common.AtoiDefault(chi.URLParam(r, "index"), -1)
	t, _ := tenant.From(r.Context())
	if err := h.Svc.Delete(r.Context(), t, index); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (CategoryInput, bool) {
	var in CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return in, false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(in); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			return in, false
		}
	}
	return in, true
}

type categoryView struct {
	Category
	Remaining int `json:"remaining"`
}

func withRemaining(categories []Category) []categoryView {
	views := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, categoryView{Category: c, Remaining: c.Remaining()})
	}
	return views
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
