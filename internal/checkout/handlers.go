package checkout

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/printmine/backend-printshop/internal/cart"
	"github.com/printmine/backend-printshop/internal/common"
	"github.com/printmine/backend-printshop/internal/tenant"
)

// Handler exposes the checkout endpoint and the admin order log.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Checkout handles POST /checkout.
func (h Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	slug, ok := tenant.From(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	token := r.Header.Get(cart.TokenHeader)
	if token == "" {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "cart token is required", nil)
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(in); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid checkout payload", map[string]any{"error": err.Error()})
			return
		}
	}
	result, err := h.Svc.Checkout(r.Context(), slug, token, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, result)
}

// Orders handles GET /admin/orders.
func (h Handler) Orders(w http.ResponseWriter, r *http.Request) {
	slug, ok := tenant.From(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	orders, err := h.Svc.Orders(r.Context(), slug)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
}
