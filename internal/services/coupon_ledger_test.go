package services_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"mall/internal/models"
	"mall/internal/repositories"
	"mall/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestCouponLedger_ReserveAndRelease(t *testing.T) {
	repo := repositories.NewMockCouponRepository()
	_ = repo.Create(&models.CouponCode{
		Name: "Five off", Code: "FIVE", Type: models.CouponTypeFixed, Value: 5, Total: 2, Enabled: true,
	})
	ledger := services.NewCouponLedger(repo)

	coupon, err := ledger.Reserve("FIVE", time.Now())
	assert.NoError(t, err)
	assert.Equal(t, "FIVE", coupon.Code)
	assert.Equal(t, 1, coupon.Used)

	ledger.Release("FIVE")
	stored, _ := repo.GetByCode("FIVE")
	assert.Equal(t, 0, stored.Used)
}

func TestCouponLedger_ReserveClassifiesFailures(t *testing.T) {
	repo := repositories.NewMockCouponRepository()
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	_ = repo.Create(&models.CouponCode{Name: "Disabled", Code: "DISABLED", Type: models.CouponTypeFixed, Value: 5, Total: 5, Enabled: false})
	_ = repo.Create(&models.CouponCode{Name: "Ended", Code: "ENDED", Type: models.CouponTypeFixed, Value: 5, Total: 5, Enabled: true, NotAfter: &past})
	_ = repo.Create(&models.CouponCode{Name: "Early", Code: "EARLY", Type: models.CouponTypeFixed, Value: 5, Total: 5, Enabled: true, NotBefore: &future})
	_ = repo.Create(&models.CouponCode{Name: "Spent", Code: "SPENT", Type: models.CouponTypeFixed, Value: 5, Total: 1, Used: 1, Enabled: true})
	ledger := services.NewCouponLedger(repo)

	cases := []struct {
		code string
		want error
	}{
		{"MISSING", models.ErrCouponUnavailable},
		{"DISABLED", models.ErrCouponUnavailable},
		{"ENDED", models.ErrCouponExpired},
		{"EARLY", models.ErrCouponExpired},
		{"SPENT", models.ErrCouponExhausted},
	}
	for _, tc := range cases {
		_, err := ledger.Reserve(tc.code, time.Now())
		assert.True(t, errors.Is(err, tc.want), "coupon %s: got %v", tc.code, err)
	}
}

func TestCouponLedger_ConcurrentReserveLimit(t *testing.T) {
	repo := repositories.NewMockCouponRepository()
	_ = repo.Create(&models.CouponCode{
		Name: "Limited", Code: "LIMITED", Type: models.CouponTypeFixed, Value: 5, Total: 3, Enabled: true,
	})
	ledger := services.NewCouponLedger(repo)

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Reserve("LIMITED", time.Now())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.True(t, errors.Is(err, models.ErrCouponExhausted))
		}
	}
	assert.Equal(t, 3, successes)

	stored, _ := repo.GetByCode("LIMITED")
	assert.Equal(t, 3, stored.Used)
}

func TestCouponLedger_ReleaseNeverGoesNegative(t *testing.T) {
	repo := repositories.NewMockCouponRepository()
	_ = repo.Create(&models.CouponCode{
		Name: "Five off", Code: "FIVE", Type: models.CouponTypeFixed, Value: 5, Total: 2, Enabled: true,
	})
	ledger := services.NewCouponLedger(repo)

	ledger.Release("FIVE")
	stored, _ := repo.GetByCode("FIVE")
	assert.Equal(t, 0, stored.Used)
}
