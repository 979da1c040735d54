package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

// Orders persists checkout receipts.
type Orders struct {
	db *gorm.DB
}

// NewOrders constructs an Orders repository.
func NewOrders(db *gorm.DB) *Orders {
	return &Orders{db: db}
}

// Create inserts o together with its items.
func (r *Orders) Create(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

// ListByUser returns the receipts of userID newest first.
func (r *Orders) ListByUser(ctx context.Context, userID uint, page Page) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(page.Limit).Offset(page.Offset).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ByID returns one receipt of userID with its items.
func (r *Orders) ByID(ctx context.Context, userID uint, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&o).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// Delete removes the receipt id and its items.
func (r *Orders) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Order{}).Error
	})
}
