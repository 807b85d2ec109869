package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dperea/storefront-backend/api/middleware"
	"github.com/dperea/storefront-backend/api/responses"
	"github.com/dperea/storefront-backend/api/validators"
	"github.com/dperea/storefront-backend/internal/orders"
	pkgerrors "github.com/dperea/storefront-backend/pkg/errors"
	"github.com/dperea/storefront-backend/pkg/logger"
	"github.com/dperea/storefront-backend/pkg/oid"
)

type orderItemPayload struct {
	Product  string `json:"product" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

type placeOrderRequest struct {
	Items []orderItemPayload `json:"items" validate:"required,min=1,dive"`
}

type updateOrderRequest struct {
	Items []orderItemPayload `json:"items" validate:"required,min=1,dive"`
}

type changeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// PlaceOrder creates an order for the authenticated user.
func PlaceOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req placeOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Place(r.Context(), orders.PlaceOrderInput{
			UserID: middleware.UserIDFromContext(r.Context()),
			Items:  toItemInputs(req.Items),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// UpdateOrder replaces the item set of an order owned by the caller.
func UpdateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateItems(r.Context(), orders.UpdateOrderItemsInput{
			OrderID: orderID,
			UserID:  middleware.UserIDFromContext(r.Context()),
			Items:   toItemInputs(req.Items),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ChangeOrderStatus moves an order to an explicit status. Routing restricts
// this to privileged roles.
func ChangeOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req changeStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ChangeStatus(r.Context(), orders.ChangeStatusInput{
			OrderID: orderID,
			Status:  req.Status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// CancelOrder cancels an order owned by the caller and returns its stock.
func CancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), orders.CancelOrderInput{
			OrderID: orderID,
			UserID:  middleware.UserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"message": "Order cancelled successfully",
			"order":   order,
		})
	}
}

// ListOrders returns every order. Routing restricts this to privileged roles.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListMyOrders returns the caller's orders.
func ListMyOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListMine(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func parseOrderID(r *http.Request) (oid.ID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	id, err := oid.Parse(raw)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "Invalid order id: "+raw)
	}
	return id, nil
}

func toItemInputs(items []orderItemPayload) []orders.ItemInput {
	inputs := make([]orders.ItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, orders.ItemInput{
			ProductID: item.Product,
			Quantity:  item.Quantity,
		})
	}
	return inputs
}
