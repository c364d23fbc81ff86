package handlers

import (
	"net/http"

	"github.com/benx421/subscription-checkout/internal/api"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// GetOrder handles GET /api/v1/orders/{orderId}. It is an operator lookup with
// no subject scoping; subject-facing clients use GetSubjectOrder.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.bindOrderID(w, r)
	if !ok {
		return
	}

	order, err := h.orderQuerier.GetOrder(r.Context(), orderID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toAPIOrder(order))
}

// GetSubjectOrder handles GET /api/v1/subjects/{subjectId}/orders/{orderId}
func (h *Handler) GetSubjectOrder(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := h.bindSubjectID(w, r)
	if !ok {
		return
	}
	orderID, ok := h.bindOrderID(w, r)
	if !ok {
		return
	}

	order, err := h.orderQuerier.GetSubjectOrder(r.Context(), subjectID, orderID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toAPIOrder(order))
}

func (h *Handler) bindOrderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var orderID openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "orderId", chi.URLParam(r, "orderId"), &orderID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		h.writeError(w, http.StatusBadRequest, api.ErrorCodeInvalidRequest, "orderId must be a UUID", 0)
		return uuid.Nil, false
	}
	return uuid.UUID(orderID), true
}

func (h *Handler) bindSubjectID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var subjectID string
	err := runtime.BindStyledParameterWithOptions("simple", "subjectId", chi.URLParam(r, "subjectId"), &subjectID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		h.writeError(w, http.StatusBadRequest, api.ErrorCodeInvalidRequest, "invalid subjectId", 0)
		return "", false
	}
	return subjectID, true
}

// GetSubjectOrders handles GET /api/v1/subjects/{subjectId}/orders
func (h *Handler) GetSubjectOrders(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := h.bindSubjectID(w, r)
	if !ok {
		return
	}

	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		h.writeError(w, http.StatusBadRequest, api.ErrorCodeInvalidRequest, "limit must be an integer", 0)
		return
	}
	n := 0
	if limit != nil {
		n = *limit
	}

	result, err := h.orderQuerier.GetSubjectOrders(r.Context(), subjectID, n)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := api.SubjectOrders{
		SubjectID:             result.SubjectID,
		HasActiveSubscription: result.HasActive,
		Orders:                make([]api.Order, 0, len(result.Orders)),
	}
	if result.ActiveOrder != nil {
		active := toAPIOrder(result.ActiveOrder)
		resp.ActiveOrder = &active
	}
	for _, o := range result.Orders {
		resp.Orders = append(resp.Orders, toAPIOrder(o))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// ListProducts handles GET /api/v1/products
func (h *Handler) ListProducts(w http.ResponseWriter, _ *http.Request) {
	products := h.catalog.Products()
	resp := api.ProductList{Products: make([]api.Product, 0, len(products))}
	for _, p := range products {
		resp.Products = append(resp.Products, api.Product{
			ID:          p.ID,
			Plan:        p.Plan,
			AmountCents: p.AmountCents,
			Currency:    p.Currency,
			Interval:    p.Interval,
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}
