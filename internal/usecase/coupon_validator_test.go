package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var couponNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func i64(v int64) *int64 { return &v }

func activeCoupon() model.Coupon {
	from := couponNow.Add(-24 * time.Hour)
	to := couponNow.Add(24 * time.Hour)
	return model.Coupon{
		ID:        7,
		Code:      "SAVE10",
		Type:      model.CouponTypePercentage,
		Value:     10,
		ValidFrom: &from,
		ValidTo:   &to,
		IsActive:  true,
	}
}

func newValidator(coupons *CouponRepoMock, orders *CouponOrderRepoMock) *usecase.CouponValidator {
	return usecase.NewCouponValidator(coupons, orders, fixedClock{couponNow})
}

func TestCouponValidator_Validate_Percentage(t *testing.T) {
	coupons := new(CouponRepoMock)
	orders := new(CouponOrderRepoMock)
	coupons.On("FindByCode", mock.Anything, "SAVE10").Return(activeCoupon(), nil)

	res, err := newValidator(coupons, orders).Validate(context.Background(), 1, " save10 ", 5000)
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.Equal(t, int64(500), res.DiscountAmount)
	require.NotNil(t, res.Coupon)
	assert.Nil(t, res.UserCoupon)
	coupons.AssertExpectations(t)
}

func TestCouponValidator_Validate_Rejections(t *testing.T) {
	past := couponNow.Add(-time.Hour)
	future := couponNow.Add(time.Hour)

	cases := []struct {
		name   string
		mutate func(c *model.Coupon)
		want   string
	}{
		{"inactive", func(c *model.Coupon) { c.IsActive = false }, "coupon is not active"},
		{"not yet valid", func(c *model.Coupon) { c.ValidFrom = &future }, "coupon is not yet valid"},
		{"expired", func(c *model.Coupon) { c.ValidTo = &past }, "coupon has expired"},
		{"min order", func(c *model.Coupon) { c.MinOrderValue = 6000 }, "minimum order value not met"},
		{"usage limit", func(c *model.Coupon) { c.UsageLimit = i64(3); c.UsedCount = 3 }, "usage limit reached"},
		{"percentage over 100", func(c *model.Coupon) { c.Value = 150 }, "coupon value is invalid"},
		{"zero value", func(c *model.Coupon) { c.Value = 0 }, "coupon value is invalid"},
		{"negative fixed", func(c *model.Coupon) { c.Type = model.CouponTypeFixed; c.Value = -500 }, "coupon value is invalid"},
		{"unknown type", func(c *model.Coupon) { c.Type = "BOGO" }, "coupon value is invalid"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := activeCoupon()
			tc.mutate(&c)
			coupons := new(CouponRepoMock)
			coupons.On("FindByCode", mock.Anything, "SAVE10").Return(c, nil)

			res, err := newValidator(coupons, new(CouponOrderRepoMock)).Validate(context.Background(), 1, "SAVE10", 5000)
			require.NoError(t, err)
			assert.False(t, res.IsValid)
			assert.Equal(t, tc.want, res.Message)
			assert.Zero(t, res.DiscountAmount)
		})
	}
}

func TestCouponValidator_Validate_NotFound(t *testing.T) {
	coupons := new(CouponRepoMock)
	coupons.On("FindByCode", mock.Anything, "NOPE").Return(model.Coupon{}, repo.ErrNotFound)

	res, err := newValidator(coupons, new(CouponOrderRepoMock)).Validate(context.Background(), 1, "nope", 5000)
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Equal(t, "coupon not found", res.Message)
}

func TestCouponValidator_Validate_DBErrorIsPersistenceFailure(t *testing.T) {
	coupons := new(CouponRepoMock)
	coupons.On("FindByCode", mock.Anything, "SAVE10").Return(model.Coupon{}, errors.New("connection reset"))

	_, err := newValidator(coupons, new(CouponOrderRepoMock)).Validate(context.Background(), 1, "SAVE10", 5000)
	assert.True(t, usecase.HasCode(err, usecase.CodePersistence))
}

func TestCouponValidator_Validate_PerUserLimit(t *testing.T) {
	c := activeCoupon()
	c.PerUserLimit = i64(1)

	coupons := new(CouponRepoMock)
	orders := new(CouponOrderRepoMock)
	coupons.On("FindByCode", mock.Anything, "SAVE10").Return(c, nil)
	orders.On("CountActiveByCustomerAndCoupon", mock.Anything, int64(1), int64(7)).Return(int64(1), nil)

	res, err := newValidator(coupons, orders).Validate(context.Background(), 1, "SAVE10", 5000)
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Equal(t, "per-user usage limit reached", res.Message)
	orders.AssertExpectations(t)
}

func TestCouponValidator_Validate_AssignmentOnly(t *testing.T) {
	c := activeCoupon()
	c.AssignmentOnly = true

	t.Run("not assigned", func(t *testing.T) {
		coupons := new(CouponRepoMock)
		coupons.On("FindByCode", mock.Anything, "SAVE10").Return(c, nil)
		coupons.On("ListAssignments", mock.Anything, int64(7), int64(1)).Return([]model.UserCoupon{}, nil)

		res, err := newValidator(coupons, new(CouponOrderRepoMock)).Validate(context.Background(), 1, "SAVE10", 5000)
		require.NoError(t, err)
		assert.Equal(t, "coupon is not assigned to this customer", res.Message)
	})

	t.Run("already used", func(t *testing.T) {
		coupons := new(CouponRepoMock)
		coupons.On("FindByCode", mock.Anything, "SAVE10").Return(c, nil)
		coupons.On("ListAssignments", mock.Anything, int64(7), int64(1)).
			Return([]model.UserCoupon{{ID: 3, CouponID: 7, CustomerID: 1, IsUsed: true}}, nil)

		res, err := newValidator(coupons, new(CouponOrderRepoMock)).Validate(context.Background(), 1, "SAVE10", 5000)
		require.NoError(t, err)
		assert.Equal(t, "coupon already used", res.Message)
	})

	t.Run("held", func(t *testing.T) {
		coupons := new(CouponRepoMock)
		coupons.On("FindByCode", mock.Anything, "SAVE10").Return(c, nil)
		coupons.On("ListAssignments", mock.Anything, int64(7), int64(1)).
			Return([]model.UserCoupon{{ID: 3, IsUsed: true}, {ID: 4}}, nil)

		res, err := newValidator(coupons, new(CouponOrderRepoMock)).Validate(context.Background(), 1, "SAVE10", 5000)
		require.NoError(t, err)
		assert.True(t, res.IsValid)
		require.NotNil(t, res.UserCoupon)
		assert.Equal(t, int64(4), res.UserCoupon.ID)
	})
}

func TestCouponDiscount(t *testing.T) {
	pct := model.Coupon{Type: model.CouponTypePercentage, Value: 15}
	fixed := model.Coupon{Type: model.CouponTypeFixed, Value: 800}

	assert.Equal(t, int64(150), usecase.CouponDiscount(pct, 1000))
	// 12.45 -> 12 / 12.5 -> 13（四捨五入）
	assert.Equal(t, int64(12), usecase.CouponDiscount(pct, 83))
	assert.Equal(t, int64(13), usecase.CouponDiscount(model.Coupon{Type: model.CouponTypePercentage, Value: 25}, 50))
	assert.Equal(t, int64(800), usecase.CouponDiscount(fixed, 1000))
	assert.Equal(t, int64(500), usecase.CouponDiscount(fixed, 500))
	assert.Equal(t, int64(0), usecase.CouponDiscount(fixed, 0))
	assert.Equal(t, int64(1000), usecase.CouponDiscount(model.Coupon{Type: model.CouponTypePercentage, Value: 100}, 1000))
	assert.Equal(t, int64(0), usecase.CouponDiscount(model.Coupon{Type: model.CouponTypePercentage, Value: 150}, 1000))
	assert.Equal(t, int64(0), usecase.CouponDiscount(model.Coupon{Type: model.CouponTypeFixed, Value: -200}, 1000))
}

func TestCouponValidator_ConsumeGlobalUsage(t *testing.T) {
	coupons := new(CouponRepoMock)
	coupons.On("IncrementUsageIfBelowLimit", mock.Anything, int64(7)).Return(true, nil).Once()
	coupons.On("IncrementUsageIfBelowLimit", mock.Anything, int64(7)).Return(false, nil).Once()

	v := newValidator(coupons, new(CouponOrderRepoMock))
	assert.NoError(t, v.ConsumeGlobalUsage(context.Background(), 7))

	err := v.ConsumeGlobalUsage(context.Background(), 7)
	assert.True(t, usecase.HasCode(err, usecase.CodeCouponInvalid))
	assert.Contains(t, err.Error(), "usage limit reached")
}

func TestCouponValidator_MarkUsed(t *testing.T) {
	orderID := int64(99)

	t.Run("first call succeeds", func(t *testing.T) {
		coupons := new(CouponRepoMock)
		coupons.On("MarkUserCouponUsed", mock.Anything, int64(3), &orderID, couponNow).Return(true, nil)

		assert.NoError(t, newValidator(coupons, new(CouponOrderRepoMock)).MarkUsed(context.Background(), 3, &orderID))
	})

	t.Run("second call is already used", func(t *testing.T) {
		coupons := new(CouponRepoMock)
		coupons.On("MarkUserCouponUsed", mock.Anything, int64(3), &orderID, couponNow).Return(false, nil)
		coupons.On("FindUserCouponByID", mock.Anything, int64(3)).Return(model.UserCoupon{ID: 3, IsUsed: true}, nil)

		err := newValidator(coupons, new(CouponOrderRepoMock)).MarkUsed(context.Background(), 3, &orderID)
		assert.True(t, usecase.HasCode(err, usecase.CodeAlreadyUsed))
	})

	t.Run("unknown id", func(t *testing.T) {
		coupons := new(CouponRepoMock)
		coupons.On("MarkUserCouponUsed", mock.Anything, int64(404), &orderID, couponNow).Return(false, nil)
		coupons.On("FindUserCouponByID", mock.Anything, int64(404)).Return(model.UserCoupon{}, repo.ErrNotFound)

		err := newValidator(coupons, new(CouponOrderRepoMock)).MarkUsed(context.Background(), 404, &orderID)
		assert.True(t, usecase.HasCode(err, usecase.CodeNotFound))
	})
}
