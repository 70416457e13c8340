package model

import "time"

type AdjustmentReason string

const (
	AdjustmentReserve    AdjustmentReason = "RESERVE"
	AdjustmentRelease    AdjustmentReason = "RELEASE"
	AdjustmentCompensate AdjustmentReason = "COMPENSATE"
	AdjustmentAdminSet   AdjustmentReason = "ADMIN_SET"
)

//在庫の増減の履歴（台帳）

type InventoryAdjustment struct {
	ID          int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64            `gorm:"not null;index" json:"product_id"`
	VariantID   *int64           `gorm:"index" json:"variant_id,omitempty"`
	OrderID     *int64           `gorm:"index" json:"order_id,omitempty"`
	ActorUserID int64            `gorm:"not null;index" json:"actor_user_id"`
	Delta       int64            `gorm:"not null" json:"delta"`
	Reason      AdjustmentReason `gorm:"type:varchar(30);not null" json:"reason"`
	Note        string           `gorm:"type:varchar(255)" json:"note"`
	CreatedAt   time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
}
