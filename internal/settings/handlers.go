package settings

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/printmine/backend-printshop/internal/common"
	"github.com/printmine/backend-printshop/internal/tenant"
)

// Handler exposes GET /settings and PUT /admin/settings.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	slug, ok := tenant.From(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	out, err := h.Svc.Get(r.Context(), slug)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) Update(w http.ResponseWriter, r *http.Request) {
	slug, ok := tenant.From(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(in); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid settings payload", map[string]any{"error": err.Error()})
			return
		}
	}
	out, err := h.Svc.Update(r.Context(), slug, in)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
		return
	}
	common.JSON(w, http.StatusOK, out)
}
