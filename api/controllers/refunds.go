package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nyeinchan/shwecart-backend/api/responses"
	"github.com/nyeinchan/shwecart-backend/api/validators"
	"github.com/nyeinchan/shwecart-backend/internal/refunds"
	"github.com/nyeinchan/shwecart-backend/pkg/logger"
)

type refundRequestBody struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type refundDecisionBody struct {
	Approve bool    `json:"approve"`
	Reason  *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// RequestItemRefund opens a refund request on one delivered-order item.
func RequestItemRefund(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload refundRequestBody
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.RequestItemRefund(r.Context(), refunds.ItemRefundRequest{
			OrderID: orderID,
			ItemID:  itemID,
			Reason:  payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderItemResponse(*item))
	}
}

// DecideItemRefund approves or rejects a requested item refund.
func DecideItemRefund(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload refundDecisionBody
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.DecideItemRefund(r.Context(), refunds.ItemRefundDecision{
			ItemID:  itemID,
			Approve: payload.Approve,
			Reason:  payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderItemResponse(*item))
	}
}

// CancelItemRefund withdraws a pending item refund request.
func CancelItemRefund(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CancelItemRefund(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderItemResponse(*item))
	}
}

// RequestOrderRefund opens a refund request covering the whole order.
func RequestOrderRefund(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload refundRequestBody
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.RequestOrderRefund(r.Context(), refunds.OrderRefundRequest{
			OrderID: orderID,
			Reason:  payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type orderRefundDecisionResponse struct {
	Order          orderResponse `json:"order"`
	ApprovedAmount string        `json:"approved_amount"`
}

// DecideOrderRefund approves or rejects a requested order refund. Approval
// pays out the order total minus item refunds already approved.
func DecideOrderRefund(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload refundDecisionBody
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.DecideOrderRefund(r.Context(), refunds.OrderRefundDecision{
			OrderID: orderID,
			Approve: payload.Approve,
			Reason:  payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderRefundDecisionResponse{
			Order:          newOrderResponse(result.Order),
			ApprovedAmount: result.ApprovedAmount.StringFixed(2),
		})
	}
}

// CancelOrderRefund withdraws a pending order refund request.
func CancelOrderRefund(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CancelOrderRefund(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
