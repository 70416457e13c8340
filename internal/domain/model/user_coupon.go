package model

import "time"

// クーポンの配布（ユーザーごと）。IsUsedは一度だけtrueになる
type UserCoupon struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	CouponID   int64      `gorm:"not null;index" json:"coupon_id"`
	CustomerID int64      `gorm:"not null;index" json:"customer_id"`
	IsUsed     bool       `gorm:"not null;default:false" json:"is_used"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	OrderID    *int64     `json:"order_id,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}
