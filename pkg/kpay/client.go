package kpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nyeinchan/shwecart-backend/pkg/config"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
	pkgerrors "github.com/nyeinchan/shwecart-backend/pkg/errors"
	"github.com/nyeinchan/shwecart-backend/pkg/logger"
)

var (
	errBaseURLRequired    = errors.New("kpay base url is required")
	errMerchantIDRequired = errors.New("kpay merchant id is required")
	errAPIKeyRequired     = errors.New("kpay api key is required")
)

// Client talks to the KPay mobile-money API with centralized auth and error
// mapping. The gateway settles asynchronously; a successful initiation only
// means the customer has been prompted on their device.
type Client struct {
	httpClient *http.Client
	baseURL    string
	merchantID string
	apiKey     string
	logger     *logger.Logger
}

// NewClient validates the credentials and builds the gateway adapter.
func NewClient(cfg config.KPayConfig, logg *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	if strings.TrimSpace(cfg.MerchantID) == "" {
		return nil, errMerchantIDRequired
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errAPIKeyRequired
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    baseURL,
		merchantID: cfg.MerchantID,
		apiKey:     cfg.APIKey,
		logger:     logg,
	}, nil
}

// InitiateRequest asks the gateway to start a payment attempt.
type InitiateRequest struct {
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Phone     string          `json:"phone"`
}

// InitiateResult echoes the gateway's transaction handle.
type InitiateResult struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// StatusResult is the gateway's authoritative view of one transaction.
type StatusResult struct {
	TransactionID string          `json:"transaction_id"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
}

type initiatePayload struct {
	MerchantID string          `json:"merchant_id"`
	Reference  string          `json:"reference"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Phone      string          `json:"phone"`
}

// InitiatePayment starts a payment attempt. Transport failures map to
// DEPENDENCY_ERROR so callers know a retry with backoff is safe.
func (c *Client) InitiatePayment(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	payload := initiatePayload{
		MerchantID: c.merchantID,
		Reference:  req.Reference,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Phone:      req.Phone,
	}
	var result InitiateResult
	if err := c.post(ctx, "/v1/payments", payload, &result); err != nil {
		return nil, err
	}
	if result.TransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway returned no transaction id")
	}
	return &result, nil
}

// QueryStatus polls the gateway for the current state of a transaction.
func (c *Client) QueryStatus(ctx context.Context, transactionID string) (*StatusResult, error) {
	if strings.TrimSpace(transactionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	var result StatusResult
	if err := c.get(ctx, "/v1/payments/"+transactionID, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MapStatus normalizes a provider status string to the payment state machine.
func MapStatus(providerStatus string) (enums.PaymentStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(providerStatus)) {
	case "SUCCESS", "PAID", "COMPLETED":
		return enums.PaymentStatusCompleted, nil
	case "FAILED", "DECLINED", "EXPIRED":
		return enums.PaymentStatusFailed, nil
	case "CANCELLED", "CANCELED":
		return enums.PaymentStatusCancelled, nil
	case "PENDING", "PROCESSING", "CREATED":
		return enums.PaymentStatusPending, nil
	default:
		return "", fmt.Errorf("unknown gateway status %q", providerStatus)
	}
}

func (c *Client) post(ctx context.Context, path string, payload any, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode gateway request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, dest)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Merchant-Id", c.merchantID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "gateway unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, "gateway transaction not found")
	case resp.StatusCode >= 500:
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("gateway error %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("gateway rejected request with %d", resp.StatusCode))
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway response")
	}
	return nil
}
