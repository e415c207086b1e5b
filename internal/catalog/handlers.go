package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/printmine/backend-printshop/internal/common"
	"github.com/printmine/backend-printshop/internal/tenant"
)

// Handler exposes the public catalog endpoints and the admin CRUD.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// List handles GET /catalog/products.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	slug, ok := tenant.From(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	page, limit := common.ParsePagination(r, h.Svc.DefaultLimit, h.Svc.MaxLimit)
	params := ListParams{
		Query:    r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
		Page:     page,
		Limit:    limit,
	}
	result, err := h.Svc.List(r.Context(), slug, params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"items": result.Items,
		"pagination": common.Pagination{
			Page:       result.Page,
			PerPage:    result.Limit,
			TotalItems: int(result.Total),
		},
	})
}

// Categories handles GET /categories.
func (h Handler) Categories(w http.ResponseWriter, r *http.Request) {
	slug, ok := tenant.From(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	categories, err := h.Svc.Categories(r.Context(), slug)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// Get handles GET /catalog/products/{slug}.
func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	slug, ok := tenant.From(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	p, err := h.Svc.Get(r.Context(), slug, chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, p)
}

// Create handles POST /admin/catalog/products.
func (h Handler) Create(w http.ResponseWriter, r *http.Request) {
	slug, ok := tenant.From(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	p, err := h.Svc.Create(r.Context(), slug, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, p)
}

// Update handles PUT /admin/catalog/products/{id}.
func (h Handler) Update(w http.ResponseWriter, r *http.Request) {
	slug, ok := tenant.From(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	p, err := h.Svc.Update(r.Context(), slug, chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, p)
}

// Delete handles DELETE /admin/catalog/products/{id}.
func (h Handler) Delete(w http.ResponseWriter, r *http.Request) {
	slug, ok := tenant.From(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), slug, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h Handler) decode(w http.ResponseWriter, r *http.Request) (ProductInput, bool) {
	var in ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
		return in, false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(in); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid product payload", map[string]any{"error": err.Error()})
			return in, false
		}
	}
	return in, true
}

func (h Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
}
