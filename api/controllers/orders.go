package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/minjaecho/commerce-pulse/api/responses"
	"github.com/minjaecho/commerce-pulse/api/validators"
	"github.com/minjaecho/commerce-pulse/internal/orders"
	pkgerrors "github.com/minjaecho/commerce-pulse/pkg/errors"
	"github.com/minjaecho/commerce-pulse/pkg/logger"
)

type orderLineRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int64     `json:"quantity" validate:"required,min=1"`
}

type createOrderRequest struct {
	UserID uuid.UUID          `json:"userId" validate:"required"`
	Items  []orderLineRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateOrder places an order and queues its event.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		lines := make([]orders.LineInput, 0, len(body.Items))
		for _, item := range body.Items {
			lines = append(lines, orders.LineInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		order, err := svc.Create(ctx, orders.CreateOrderInput{
			UserID: body.UserID,
			Lines:  lines,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrderDetail serves the order with its line items.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "order id must be a uuid"))
			return
		}
		order, err := svc.Get(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
