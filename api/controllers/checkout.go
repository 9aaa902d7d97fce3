package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyeinchan/shwecart-backend/api/responses"
	"github.com/nyeinchan/shwecart-backend/api/validators"
	checkoutsvc "github.com/nyeinchan/shwecart-backend/internal/checkout"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
	pkgerrors "github.com/nyeinchan/shwecart-backend/pkg/errors"
	"github.com/nyeinchan/shwecart-backend/pkg/logger"
)

type checkoutLineRequest struct {
	ProductID   *uuid.UUID      `json:"product_id,omitempty" validate:"omitempty,uuid4"`
	ProductName string          `json:"product_name" validate:"required,max=200"`
	ProductSKU  string          `json:"product_sku" validate:"omitempty,max=100"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Quantity    int             `json:"quantity" validate:"required,min=1"`
}

type checkoutRequest struct {
	CustomerName    string                `json:"customer_name" validate:"required,max=200"`
	CustomerPhone   string                `json:"customer_phone" validate:"required,max=30"`
	CustomerEmail   *string               `json:"customer_email,omitempty" validate:"omitempty,email"`
	DeliveryAddress string                `json:"delivery_address" validate:"required,max=500"`
	ScheduleNotes   *string               `json:"schedule_notes,omitempty" validate:"omitempty,max=500"`
	DeliveryTime    *time.Time            `json:"delivery_time,omitempty"`
	PaymentMethod   string                `json:"payment_method" validate:"required,oneof=kpay cash"`
	Source          string                `json:"source" validate:"omitempty,oneof=web external"`
	Tax             decimal.Decimal       `json:"tax"`
	DeliveryFee     decimal.Decimal       `json:"delivery_fee"`
	Items           []checkoutLineRequest `json:"items" validate:"required,min=1,dive"`
}

type checkoutResponse struct {
	Order   orderResponse    `json:"order"`
	Payment *paymentResponse `json:"payment,omitempty"`
}

// SubmitOrder handles a storefront checkout submission.
func SubmitOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		source := enums.OrderSource(payload.Source)
		if payload.Source == "" {
			source = enums.OrderSourceWeb
		}

		items := make([]checkoutsvc.LineInput, 0, len(payload.Items))
		for _, line := range payload.Items {
			items = append(items, checkoutsvc.LineInput{
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				ProductSKU:  line.ProductSKU,
				Price:       line.Price,
				Quantity:    line.Quantity,
			})
		}

		result, err := svc.Submit(r.Context(), checkoutsvc.SubmitInput{
			CustomerName:    payload.CustomerName,
			CustomerPhone:   payload.CustomerPhone,
			CustomerEmail:   payload.CustomerEmail,
			DeliveryAddress: payload.DeliveryAddress,
			ScheduleNotes:   payload.ScheduleNotes,
			DeliveryTime:    payload.DeliveryTime,
			PaymentMethod:   enums.PaymentMethod(payload.PaymentMethod),
			Source:          source,
			Tax:             payload.Tax,
			DeliveryFee:     payload.DeliveryFee,
			Items:           items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := checkoutResponse{Order: newOrderResponse(result.Order)}
		if result.Payment != nil {
			payment := newPaymentResponse(result.Payment)
			resp.Payment = &payment
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}
