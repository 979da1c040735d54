package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/storefront/internal/models"
)

// OTPs persists one challenge per phone number.
type OTPs struct {
	db *gorm.DB
}

// NewOTPs constructs an OTPs repository.
func NewOTPs(db *gorm.DB) *OTPs {
	return &OTPs{db: db}
}

// WithTx returns a copy bound to tx.
func (r *OTPs) WithTx(tx *gorm.DB) *OTPs {
	return &OTPs{db: tx}
}

// Upsert stores ch, replacing any prior challenge for the same phone.
func (r *OTPs) Upsert(ctx context.Context, ch *models.OTPChallenge) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "expires_at", "created_at"}),
	}).Create(ch).Error
}

// Get returns the live challenge for phone or ErrNotFound.
func (r *OTPs) Get(ctx context.Context, phone string) (*models.OTPChallenge, error) {
	var ch models.OTPChallenge
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&ch).Error; err != nil {
		return nil, translate(err)
	}
	return &ch, nil
}

// Delete removes the challenge for phone. Deleting a missing row is not an error.
func (r *OTPs) Delete(ctx context.Context, phone string) error {
	return r.db.WithContext(ctx).Where("phone = ?", phone).Delete(&models.OTPChallenge{}).Error
}
