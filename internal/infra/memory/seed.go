package memory

import (
	"time"

	"marketplace/internal/domain/model"
)

// STORE=memoryで起動したときのデモデータ
// 出品者 101/102、購入者 1 の住所、クーポン WELCOME10
func SeedDemo(s *Store) {
	now := s.now()

	s.AddProduct(model.Product{SellerID: 101, Name: "Coffee Beans", Price: 1200, Stock: 50, IsActive: true, CreatedAt: now, UpdatedAt: now})
	tee := s.AddProduct(model.Product{SellerID: 101, Name: "T-Shirt", Price: 2500, Stock: 0, IsActive: true, CreatedAt: now, UpdatedAt: now})
	s.AddVariant(model.ProductVariant{ProductID: tee.ID, Name: "M", SKU: "TEE-M", Stock: 20, IsActive: true, CreatedAt: now, UpdatedAt: now})
	s.AddVariant(model.ProductVariant{ProductID: tee.ID, Name: "L", SKU: "TEE-L", Price: 2700, Stock: 10, IsActive: true, CreatedAt: now, UpdatedAt: now})
	s.AddProduct(model.Product{SellerID: 102, Name: "Notebook", Price: 400, Stock: 100, IsActive: true, CreatedAt: now, UpdatedAt: now})

	s.AddAddress(model.Address{UserID: 1, PostalCode: "100-0001", Prefecture: "Tokyo", CreatedAt: now, UpdatedAt: now})

	limit := int64(100)
	perUser := int64(1)
	to := now.Add(90 * 24 * time.Hour)
	s.AddCoupon(model.Coupon{
		Code:         "WELCOME10",
		Type:         model.CouponTypePercentage,
		Value:        10,
		ValidFrom:    &now,
		ValidTo:      &to,
		UsageLimit:   &limit,
		PerUserLimit: &perUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}
