package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(filepath.Join(t.TempDir(), "store.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func TestUsers_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	users := NewUsers(openTestDB(t))

	u := &models.User{Name: "Ava", Email: "a@x.com", Phone: "9876543210", PasswordHash: "hash"}
	require.NoError(t, users.Create(ctx, u))
	assert.NotZero(t, u.ID)

	byEmail, err := users.ByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byPhone, err := users.ByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byPhone.ID)

	_, err = users.ByEmail(ctx, "A@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	exists, err := users.EmailExists(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUsers_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := NewUsers(openTestDB(t))

	require.NoError(t, users.Create(ctx, &models.User{Name: "Ava", Email: "a@x.com", Phone: "9876543210", PasswordHash: "h"}))
	err := users.Create(ctx, &models.User{Name: "Bo", Email: "a@x.com", Phone: "1234567890", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUsers_UpdatePasswordByPhone(t *testing.T) {
	ctx := context.Background()
	users := NewUsers(openTestDB(t))
	require.NoError(t, users.Create(ctx, &models.User{Name: "Ava", Email: "a@x.com", Phone: "9876543210", PasswordHash: "old"}))

	n, err := users.UpdatePasswordByPhone(ctx, "9876543210", "new")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	u, err := users.ByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "new", u.PasswordHash)

	n, err = users.UpdatePasswordByPhone(ctx, "0000000000", "new")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUsers_List(t *testing.T) {
	ctx := context.Background()
	users := NewUsers(openTestDB(t))
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		require.NoError(t, users.Create(ctx, &models.User{Name: "n", Email: email, Phone: "9876543210", PasswordHash: "h"}))
	}

	list, total, err := users.List(ctx, Page{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, list, 2)
	assert.Equal(t, "c@x.com", list[0].Email)
	assert.Empty(t, list[0].PasswordHash)
}

func TestOTPs_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	otps := NewOTPs(openTestDB(t))
	exp := time.Now().Add(5 * time.Minute).UTC().Truncate(time.Second)

	require.NoError(t, otps.Upsert(ctx, &models.OTPChallenge{Phone: "9876543210", Code: "111111", ExpiresAt: exp}))
	require.NoError(t, otps.Upsert(ctx, &models.OTPChallenge{Phone: "9876543210", Code: "222222", ExpiresAt: exp.Add(time.Minute)}))

	ch, err := otps.Get(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "222222", ch.Code)
	assert.True(t, ch.ExpiresAt.Equal(exp.Add(time.Minute)))

	require.NoError(t, otps.Delete(ctx, "9876543210"))
	_, err = otps.Get(ctx, "9876543210")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, otps.Delete(ctx, "9876543210"))
}

func TestVisitors_RecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	visitors := NewVisitors(openTestDB(t))
	base := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, visitors.Record(ctx, &models.Visitor{
			IP:        "10.0.0.1",
			UserAgent: "test",
			VisitedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	list, total, err := visitors.Recent(ctx, Page{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, list, 3)
	assert.True(t, list[0].VisitedAt.After(list[2].VisitedAt))
}

func TestOrders_CreateAndList(t *testing.T) {
	ctx := context.Background()
	orders := NewOrders(openTestDB(t))

	o := &models.Order{
		UserID:      7,
		Status:      "confirmed",
		PlacedAt:    time.Now(),
		Subtotal:    decimal.NewFromInt(1000),
		Discount:    decimal.NewFromInt(100),
		TotalAmount: decimal.NewFromInt(900),
		Items: []models.OrderItem{
			{ProductID: 1, ProductName: "Lipstick", Quantity: 2, UnitPrice: decimal.NewFromInt(500), LineTotal: decimal.NewFromInt(1000)},
		},
	}
	require.NoError(t, orders.Create(ctx, o))

	list, total, err := orders.ListByUser(ctx, 7, Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.True(t, decimal.NewFromInt(900).Equal(list[0].TotalAmount))
	require.Len(t, list[0].Items, 1)
	assert.Equal(t, o.ID, list[0].Items[0].OrderID)

	list, total, err = orders.ListByUser(ctx, 8, Page{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)

	got, err := orders.ByID(ctx, 7, o.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)

	_, err = orders.ByID(ctx, 8, o.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrders_Delete(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	orders := NewOrders(db)

	o := &models.Order{
		UserID:   7,
		Status:   "confirmed",
		PlacedAt: time.Now(),
		Items: []models.OrderItem{
			{ProductID: 1, ProductName: "Lipstick", Quantity: 1, UnitPrice: decimal.NewFromInt(5), LineTotal: decimal.NewFromInt(5)},
		},
	}
	require.NoError(t, orders.Create(ctx, o))
	require.NoError(t, orders.Delete(ctx, o.ID))

	_, err := orders.ByID(ctx, 7, o.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var items int64
	require.NoError(t, db.Model(&models.OrderItem{}).Where("order_id = ?", o.ID).Count(&items).Error)
	assert.Zero(t, items)
}
