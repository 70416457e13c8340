package model

import "time"

// 在庫更新、注文ステータス更新など。
type AuditAction string

const (
	//在庫を更新した操作。
	AuditActionUpdateStock AuditAction = "UPDATE_STOCK"
	//注文ステータスを更新した操作。
	AuditActionUpdateOrderStatus    AuditAction = "UPDATE_ORDER_STATUS"
	AuditActionUpdateSubOrderStatus AuditAction = "UPDATE_SUBORDER_STATUS"
	AuditActionUpdatePaymentStatus  AuditAction = "UPDATE_PAYMENT_STATUS"
	AuditActionCancelOrder          AuditAction = "CANCEL_ORDER"
	AuditActionCancelSubOrder       AuditAction = "CANCEL_SUBORDER"
)

// 何に対する操作か
type AuditResourceType string

const (
	//商品に対する操作。
	AuditResourceProduct AuditResourceType = "product"

	//注文に対する操作。
	AuditResourceOrder AuditResourceType = "order"

	//出品者ごとの注文に対する操作。
	AuditResourceSubOrder AuditResourceType = "sub_order"
)

func (t AuditResourceType) Valid() bool {
	switch t {
	case AuditResourceProduct, AuditResourceOrder, AuditResourceSubOrder:
		return true
	}
	return false
}

// 監査ログ（ステータス変更・在庫操作のログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	//IDは監査ログの主キー
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したユーザーのID。
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	//操作したユーザーのロール。
	ActorRole Role `gorm:"type:varchar(20);not null" json:"actor_role"`

	//Actionは操作の種類（UPDATE_STOCK / UPDATE_ORDER_STATUS など）。
	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	//対象の種類（product / order / sub_order）。
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	//対象のID）。
	ResourceID int64 `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`

	//JSON文字列で保存する。
	AfterJSON string `gorm:"type:text" json:"after_json"`

	//作成時刻
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
