package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number INTEGER NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'pending',
  subtotal NUMERIC NOT NULL,
  tax NUMERIC NOT NULL DEFAULT 0,
  delivery_fee NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'MMK',
  customer_name TEXT NOT NULL,
  customer_phone TEXT NOT NULL,
  customer_email TEXT,
  delivery_address TEXT NOT NULL,
  schedule_notes TEXT,
  delivery_time DATETIME,
  payment_method TEXT NOT NULL DEFAULT 'kpay',
  is_paid INTEGER NOT NULL DEFAULT 0,
  source TEXT NOT NULL DEFAULT 'web',
  refund_requested INTEGER NOT NULL DEFAULT 0,
  refund_status TEXT NOT NULL DEFAULT 'none',
  refund_reason TEXT,
  refund_requested_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT,
  product_name TEXT NOT NULL,
  product_sku TEXT NOT NULL,
  price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  total NUMERIC NOT NULL,
  refund_requested INTEGER NOT NULL DEFAULT 0,
  refund_status TEXT NOT NULL DEFAULT 'none',
  refund_reason TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	return db
}

func insertOrder(t *testing.T, db *gorm.DB, orderNumber int64, status enums.OrderStatus) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     orderNumber,
		Status:          status,
		Subtotal:        decimal.NewFromInt(15000),
		Total:           decimal.NewFromInt(18500),
		CustomerName:    "Ma Thida",
		CustomerPhone:   "09790001122",
		DeliveryAddress: "No. 42, Bogyoke Road, Yangon",
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestUpdateStatusIfAppliesWhenRowMatches(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	order := insertOrder(t, db, 20001, enums.OrderStatusPending)

	rows, err := repo.UpdateStatusIf(context.Background(), order.ID,
		[]enums.OrderStatus{enums.OrderStatusPending},
		map[string]any{"status": enums.OrderStatusProcessing, "is_paid": true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	reloaded, err := repo.Find(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, reloaded.Status)
	assert.True(t, reloaded.IsPaid)
}

func TestUpdateStatusIfMissesWhenStateMovedOn(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	order := insertOrder(t, db, 20002, enums.OrderStatusDelivered)

	rows, err := repo.UpdateStatusIf(context.Background(), order.ID,
		[]enums.OrderStatus{enums.OrderStatusPending},
		map[string]any{"status": enums.OrderStatusProcessing})
	require.NoError(t, err)
	assert.Zero(t, rows, "conditional update must not touch a row outside the expected states")

	reloaded, err := repo.Find(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, reloaded.Status)
}

func TestUpdateStatusIfRaceHasSingleWinner(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	order := insertOrder(t, db, 20003, enums.OrderStatusPending)
	ctx := context.Background()

	first, err := repo.UpdateStatusIf(ctx, order.ID,
		[]enums.OrderStatus{enums.OrderStatusPending},
		map[string]any{"status": enums.OrderStatusProcessing})
	require.NoError(t, err)
	second, err := repo.UpdateStatusIf(ctx, order.ID,
		[]enums.OrderStatus{enums.OrderStatusPending},
		map[string]any{"status": enums.OrderStatusCancelled})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Zero(t, second, "loser of the race must observe zero rows")

	reloaded, err := repo.Find(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, reloaded.Status)
}

func TestFindPreloadsItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	order := insertOrder(t, db, 20004, enums.OrderStatusPending)

	item := &models.OrderItem{
		ID:          uuid.New(),
		OrderID:     order.ID,
		ProductName: "Shan Noodle Kit",
		ProductSKU:  "SNK-01",
		Price:       decimal.NewFromInt(7500),
		Quantity:    2,
		Total:       decimal.NewFromInt(15000),
	}
	require.NoError(t, db.Create(item).Error)

	reloaded, err := repo.Find(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, "SNK-01", reloaded.Items[0].ProductSKU)
}

func TestFindByNumber(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	order := insertOrder(t, db, 20005, enums.OrderStatusPending)

	reloaded, err := repo.FindByNumber(context.Background(), 20005)
	require.NoError(t, err)
	assert.Equal(t, order.ID, reloaded.ID)

	_, err = repo.FindByNumber(context.Background(), 99999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
