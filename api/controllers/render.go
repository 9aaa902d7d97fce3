package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
)

type orderResponse struct {
	OrderID         uuid.UUID           `json:"order_id"`
	OrderNumber     int64               `json:"order_number"`
	Status          string              `json:"status"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	Tax             decimal.Decimal     `json:"tax"`
	DeliveryFee     decimal.Decimal     `json:"delivery_fee"`
	Total           decimal.Decimal     `json:"total"`
	Currency        string              `json:"currency"`
	CustomerName    string              `json:"customer_name"`
	CustomerPhone   string              `json:"customer_phone"`
	DeliveryAddress string              `json:"delivery_address"`
	PaymentMethod   string              `json:"payment_method"`
	IsPaid          bool                `json:"is_paid"`
	Source          string              `json:"source"`
	RefundStatus    string              `json:"refund_status"`
	Items           []orderItemResponse `json:"items,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

type orderItemResponse struct {
	ItemID       uuid.UUID       `json:"item_id"`
	ProductID    *uuid.UUID      `json:"product_id,omitempty"`
	ProductName  string          `json:"product_name"`
	ProductSKU   string          `json:"product_sku"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	Total        decimal.Decimal `json:"total"`
	RefundStatus string          `json:"refund_status"`
}

type paymentResponse struct {
	PaymentID     uuid.UUID       `json:"payment_id"`
	OrderID       uuid.UUID       `json:"order_id"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	Reference     string          `json:"reference"`
	ClientTimeout bool            `json:"client_timeout"`
	FailureReason *string         `json:"failure_reason,omitempty"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

type assignmentResponse struct {
	AssignmentID uuid.UUID       `json:"assignment_id"`
	OrderID      uuid.UUID       `json:"order_id"`
	RiderID      uuid.UUID       `json:"rider_id"`
	Status       string          `json:"status"`
	Fee          decimal.Decimal `json:"fee"`
	DeliveryFee  decimal.Decimal `json:"delivery_fee"`
	Notes        *string         `json:"notes,omitempty"`
	AssignedAt   time.Time       `json:"assigned_at"`
	RespondedAt  *time.Time      `json:"responded_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

type riderResponse struct {
	RiderID   uuid.UUID `json:"rider_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, newOrderItemResponse(item))
	}
	return orderResponse{
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          string(order.Status),
		Subtotal:        order.Subtotal,
		Tax:             order.Tax,
		DeliveryFee:     order.DeliveryFee,
		Total:           order.Total,
		Currency:        order.Currency,
		CustomerName:    order.CustomerName,
		CustomerPhone:   order.CustomerPhone,
		DeliveryAddress: order.DeliveryAddress,
		PaymentMethod:   string(order.PaymentMethod),
		IsPaid:          order.IsPaid,
		Source:          string(order.Source),
		RefundStatus:    string(order.RefundStatus),
		Items:           items,
		CreatedAt:       order.CreatedAt,
	}
}

func newOrderItemResponse(item models.OrderItem) orderItemResponse {
	return orderItemResponse{
		ItemID:       item.ID,
		ProductID:    item.ProductID,
		ProductName:  item.ProductName,
		ProductSKU:   item.ProductSKU,
		Price:        item.Price,
		Quantity:     item.Quantity,
		Total:        item.Total,
		RefundStatus: string(item.RefundStatus),
	}
}

func newPaymentResponse(payment *models.Payment) paymentResponse {
	if payment == nil {
		return paymentResponse{}
	}
	return paymentResponse{
		PaymentID:     payment.ID,
		OrderID:       payment.OrderID,
		Status:        string(payment.Status),
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		TransactionID: payment.KPayTransactionID,
		Reference:     payment.Reference,
		ClientTimeout: payment.ClientTimeout,
		FailureReason: payment.FailureReason,
		CompletedAt:   payment.CompletedAt,
	}
}

func newAssignmentResponse(a *models.OrderAssignment) assignmentResponse {
	if a == nil {
		return assignmentResponse{}
	}
	return assignmentResponse{
		AssignmentID: a.ID,
		OrderID:      a.OrderID,
		RiderID:      a.RiderID,
		Status:       string(a.Status),
		Fee:          a.Fee,
		DeliveryFee:  a.DeliveryFee,
		Notes:        a.Notes,
		AssignedAt:   a.AssignedAt,
		RespondedAt:  a.RespondedAt,
		CompletedAt:  a.CompletedAt,
	}
}

func newRiderResponse(rider *models.Rider) riderResponse {
	if rider == nil {
		return riderResponse{}
	}
	return riderResponse{
		RiderID:   rider.ID,
		Name:      rider.Name,
		Phone:     rider.Phone,
		Status:    string(rider.Status),
		CreatedAt: rider.CreatedAt,
	}
}
