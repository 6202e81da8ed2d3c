package repositories

import (
	"fmt"
	"time"

	"mall/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCouponRepository is a GORM implementation of CouponRepository.
type GORMCouponRepository struct {
	db *gorm.DB
}

// NewGORMCouponRepository creates a new instance of GORMCouponRepository.
func NewGORMCouponRepository(db *gorm.DB) *GORMCouponRepository {
	return &GORMCouponRepository{
		db: db,
	}
}

// GetByCode retrieves a coupon by its code string.
func (r *GORMCouponRepository) GetByCode(code string) (*models.CouponCode, error) {
	var coupon models.CouponCode
	if err := r.db.First(&coupon, "code = ?", code).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("coupon %s: %w", code, models.ErrCouponUnavailable)
		}
		return nil, fmt.Errorf("failed to get coupon by code %s: %w", code, err)
	}
	return &coupon, nil
}

// Create creates a new coupon code in the database.
func (r *GORMCouponRepository) Create(coupon *models.CouponCode) error {
	if coupon.ID == "" {
		coupon.ID = uuid.New().String()
	}
	if err := r.db.Create(coupon).Error; err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	return nil
}

// ReserveUsage increments the used count. Every availability condition sits
// in the WHERE clause of the single UPDATE, so two orders racing for the last
// remaining use cannot both pass. When zero rows match, the row is re-read
// only to name the reason.
func (r *GORMCouponRepository) ReserveUsage(code string, now time.Time) error {
	res := r.db.Model(&models.CouponCode{}).
		Where("code = ? AND enabled = ? AND used < total", code, true).
		Where("(not_before IS NULL OR not_before <= ?)", now).
		Where("(not_after IS NULL OR not_after >= ?)", now).
		UpdateColumn("used", gorm.Expr("used + 1"))
	if res.Error != nil {
		return fmt.Errorf("failed to reserve coupon %s: %w", code, res.Error)
	}
	if res.RowsAffected == 0 {
		coupon, err := r.GetByCode(code)
		if err != nil {
			return err
		}
		if err := coupon.CheckAvailable(now); err != nil {
			return fmt.Errorf("coupon %s: %w", code, err)
		}
		// The coupon looked fine on the re-read; a concurrent reservation
		// must have taken the last use between the two statements.
		return fmt.Errorf("coupon %s: %w", code, models.ErrCouponExhausted)
	}
	return nil
}

// ReleaseUsage decrements the used count after an auto-closed order gives its
// reservation back.
func (r *GORMCouponRepository) ReleaseUsage(code string) error {
	res := r.db.Model(&models.CouponCode{}).
		Where("code = ? AND used > 0", code).
		UpdateColumn("used", gorm.Expr("used - 1"))
	if res.Error != nil {
		return fmt.Errorf("failed to release coupon %s: %w", code, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("coupon %s: %w", code, models.ErrCouponUnavailable)
	}
	return nil
}
