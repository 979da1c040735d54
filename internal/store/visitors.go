package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

// Visitors persists the request log.
type Visitors struct {
	db *gorm.DB
}

// NewVisitors constructs a Visitors repository.
func NewVisitors(db *gorm.DB) *Visitors {
	return &Visitors{db: db}
}

// Record appends one entry.
func (r *Visitors) Record(ctx context.Context, v *models.Visitor) error {
	return r.db.WithContext(ctx).Create(v).Error
}

// Recent returns entries newest first together with the total count.
func (r *Visitors) Recent(ctx context.Context, page Page) ([]models.Visitor, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Visitor{}).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var visitors []models.Visitor
	if err := query.Order("visited_at desc").Order("id desc").
		Limit(page.Limit).Offset(page.Offset).
		Find(&visitors).Error; err != nil {
		return nil, 0, err
	}
	return visitors, total, nil
}
