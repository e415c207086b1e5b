package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/printmine/backend-printshop/internal/common"
	"github.com/printmine/backend-printshop/internal/tenant"
)

const TokenHeader = "X-Cart-Token"

// Handler exposes the cart endpoints. The session token travels in the
// X-Cart-Token header; a missing token on GET mints a fresh cart.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type addInput struct {
	ProductSlug string `json:"productSlug" validate:"required"`
	Qty         int    `json:"qty" validate:"required,gt=0"`
}

type qtyInput struct {
	ProductID string `json:"productId" validate:"required"`
	Qty       int    `json:"qty" validate:"gte=0"`
}

// Get handles GET /cart.
func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	slug, ok := tenant.From(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	token := r.Header.Get(TokenHeader)
	if token == "" {
		token = NewToken()
		common.JSON(w, http.StatusOK, Cart{Token: token, Items: []Item{}})
		return
	}
	c, err := h.Svc.Get(r.Context(), slug, token)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, c)
}

// AddItem handles POST /cart/items.
func (h Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	slug, ok := tenant.From(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	token := r.Header.Get(TokenHeader)
	if token == "" {
		token = NewToken()
	}
	var in addInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(in); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid cart payload", map[string]any{"error": err.Error()})
			return
		}
	}
	c, err := h.Svc.AddItem(r.Context(), slug, token, in.ProductSlug, in.Qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, c)
}

// UpdateQty handles PATCH /cart/items.
func (h Handler) UpdateQty(w http.ResponseWriter, r *http.Request) {
	slug, ok := tenant.From(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	token := r.Header.Get(TokenHeader)
	var in qtyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(in); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid cart payload", map[string]any{"error": err.Error()})
			return
		}
	}
	c, err := h.Svc.UpdateQty(r.Context(), slug, token, in.ProductID, in.Qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, c)
}

// Clear handles DELETE /cart.
func (h Handler) Clear(w http.ResponseWriter, r *http.Request) {
	slug, ok := tenant.From(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	if err := h.Svc.Clear(r.Context(), slug, r.Header.Get(TokenHeader)); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
}
