package model

import (
	"strings"
	"time"
)

type CouponType string

const (
	CouponTypeFixed      CouponType = "FIXED"
	CouponTypePercentage CouponType = "PERCENTAGE"
)

// 管理者が作るクーポン
// FIXEDのValueは金額（最小通貨単位）、PERCENTAGEのValueは%。
type Coupon struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code          string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	Type          CouponType `gorm:"type:varchar(20);not null" json:"type"`
	Value         int64      `gorm:"not null" json:"value"`
	ValidFrom     *time.Time `json:"valid_from,omitempty"`
	ValidTo       *time.Time `json:"valid_to,omitempty"`
	UsageLimit    *int64     `json:"usage_limit,omitempty"`
	UsedCount     int64      `gorm:"not null;default:0" json:"used_count"`
	PerUserLimit  *int64     `json:"per_user_limit,omitempty"`
	MinOrderValue int64      `gorm:"not null;default:0" json:"min_order_value"`
	IsActive      bool       `gorm:"not null;default:true" json:"is_active"`

	// trueなら、UserCouponで配布されたユーザーだけが使える
	AssignmentOnly bool `gorm:"not null;default:false" json:"assignment_only"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// コードは大文字で比較する
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// 値の範囲: PERCENTAGEは1〜100、FIXEDは1以上
func (c Coupon) HasValidValue() bool {
	switch c.Type {
	case CouponTypePercentage:
		return c.Value > 0 && c.Value <= 100
	case CouponTypeFixed:
		return c.Value > 0
	}
	return false
}
