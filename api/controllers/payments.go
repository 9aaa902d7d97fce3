package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/nyeinchan/shwecart-backend/api/responses"
	"github.com/nyeinchan/shwecart-backend/api/validators"
	"github.com/nyeinchan/shwecart-backend/internal/payments"
	pkgerrors "github.com/nyeinchan/shwecart-backend/pkg/errors"
	"github.com/nyeinchan/shwecart-backend/pkg/logger"
)

type kpayWebhookRequest struct {
	TransactionID string          `json:"transaction_id" validate:"required"`
	Status        string          `json:"status" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     *time.Time      `json:"timestamp,omitempty"`
}

// KPayWebhook ingests gateway callbacks. Duplicates, late arrivals and
// unknown transactions are absorbed with a 200 so the gateway stops
// retrying; only a malformed payload is rejected.
func KPayWebhook(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		var payload kpayWebhookRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receivedAt := time.Now().UTC()
		if payload.Timestamp != nil {
			receivedAt = *payload.Timestamp
		}

		err := svc.HandleWebhook(r.Context(), payments.WebhookEvent{
			TransactionRef: payload.TransactionID,
			Status:         payload.Status,
			Amount:         payload.Amount,
			ReceivedAt:     receivedAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

// PaymentStatus reads the payment, polling the gateway when it is still
// undecided.
func PaymentStatus(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "paymentId"), "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.CheckStatus(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPaymentResponse(payment))
	}
}

type clientTimeoutRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// PaymentClientTimeout records that the client gave up waiting. The flag is
// advisory; a later webhook can still settle the payment.
func PaymentClientTimeout(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "paymentId"), "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload clientTimeoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.ReportClientTimeout(r.Context(), id, payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPaymentResponse(payment))
	}
}

// ListOrderPayments returns every payment attempt against an order.
func ListOrderPayments(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOrderPayments(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := make([]paymentResponse, 0, len(list))
		for i := range list {
			resp = append(resp, newPaymentResponse(&list[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}
