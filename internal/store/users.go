package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

// Users persists credential records.
type Users struct {
	db *gorm.DB
}

// NewUsers constructs a Users repository.
func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// WithTx returns a copy bound to tx.
func (r *Users) WithTx(tx *gorm.DB) *Users {
	return &Users{db: tx}
}

// Create inserts u and fills its id. A taken email yields ErrDuplicate.
func (r *Users) Create(ctx context.Context, u *models.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

// ByEmail looks a user up by exact email.
func (r *Users) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// ByPhone returns the first user registered with phone.
func (r *Users) ByPhone(ctx context.Context, phone string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).Order("id").First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// EmailExists reports whether any user holds email.
func (r *Users) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdatePasswordByPhone replaces the password hash of every user with phone
// and returns how many rows changed.
func (r *Users) UpdatePasswordByPhone(ctx context.Context, phone, hash string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("phone = ?", phone).
		Update("password_hash", hash)
	return res.RowsAffected, res.Error
}

// List returns users newest first together with the total count.
func (r *Users) List(ctx context.Context, page Page) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{}).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := query.Select("id, name, email, phone, created_at, updated_at").
		Order("id desc").
		Limit(page.Limit).Offset(page.Offset).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
