package kpay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyeinchan/shwecart-backend/pkg/config"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
	pkgerrors "github.com/nyeinchan/shwecart-backend/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.KPayConfig{
		BaseURL:        srv.URL,
		MerchantID:     "merchant-1",
		APIKey:         "key",
		RequestTimeout: 2 * time.Second,
	}, nil)
	require.NoError(t, err)
	return client, srv
}

func TestNewClientValidatesCredentials(t *testing.T) {
	_, err := NewClient(config.KPayConfig{MerchantID: "m", APIKey: "k"}, nil)
	assert.ErrorIs(t, err, errBaseURLRequired)

	_, err = NewClient(config.KPayConfig{BaseURL: "https://x", APIKey: "k"}, nil)
	assert.ErrorIs(t, err, errMerchantIDRequired)

	_, err = NewClient(config.KPayConfig{BaseURL: "https://x", MerchantID: "m"}, nil)
	assert.ErrorIs(t, err, errAPIKeyRequired)
}

func TestInitiatePaymentSendsAuthHeaders(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.Equal(t, "merchant-1", r.Header.Get("X-Merchant-Id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transaction_id":"txn-1","status":"PENDING"}`))
	}))

	result, err := client.InitiatePayment(context.Background(), InitiateRequest{
		Reference: "SC-1001",
		Amount:    decimal.NewFromInt(25000),
		Currency:  "MMK",
		Phone:     "0955512345",
	})
	require.NoError(t, err)
	assert.Equal(t, "txn-1", result.TransactionID)
}

func TestInitiatePaymentMissingTransactionID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"PENDING"}`))
	}))

	_, err := client.InitiatePayment(context.Background(), InitiateRequest{Reference: "SC-1"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestQueryStatusMapsGatewayFailures(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.QueryStatus(context.Background(), "txn-9")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestQueryStatusNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.QueryStatus(context.Background(), "txn-missing")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		raw    string
		want   enums.PaymentStatus
		hasErr bool
	}{
		{raw: "SUCCESS", want: enums.PaymentStatusCompleted},
		{raw: "paid", want: enums.PaymentStatusCompleted},
		{raw: "FAILED", want: enums.PaymentStatusFailed},
		{raw: "CANCELLED", want: enums.PaymentStatusCancelled},
		{raw: "pending", want: enums.PaymentStatusPending},
		{raw: "PROCESSING", want: enums.PaymentStatusPending},
		{raw: "bogus", hasErr: true},
	}
	for _, tt := range tests {
		got, err := MapStatus(tt.raw)
		if tt.hasErr {
			assert.Error(t, err, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}
