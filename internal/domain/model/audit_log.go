package model

import "time"

// カフェの作成・更新・削除・一括取り込みなど。
type AuditAction string

const (
	AuditActionCreateCafe  AuditAction = "CREATE_CAFE"
	AuditActionUpdateCafe  AuditAction = "UPDATE_CAFE"
	AuditActionDeleteCafe  AuditAction = "DELETE_CAFE"
	AuditActionImportCafes AuditAction = "IMPORT_CAFES"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceCafe AuditResourceType = "cafe"
)

// 監査ログ（カタログ操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したユーザーのID。
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	//一括取り込みのときは0
	ResourceID int64 `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
