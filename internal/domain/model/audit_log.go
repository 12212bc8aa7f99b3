package model

import "time"

// 管理者操作の種類
type AuditAction string

const (
	AuditActionCreateProduct AuditAction = "CREATE_PRODUCT"
	AuditActionUpdateProduct AuditAction = "UPDATE_PRODUCT"
	AuditActionDeleteProduct AuditAction = "DELETE_PRODUCT"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」行ったかを残す。
type AuditLog struct {
	ID          int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID int64       `gorm:"not null;index" json:"actorUserId"`
	Action      AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`
	ProductID   int64       `gorm:"not null;index" json:"productId"`

	//変更内容の要約（商品名など）
	Detail string `gorm:"type:text" json:"detail"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}
