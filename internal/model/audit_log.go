package model

import "gorm.io/datatypes"

// AuditLog 管理员写操作审计
// swagger:model AuditLog
type AuditLog struct {
	UUIDBase

	UserID     string         `gorm:"type:varchar(36);index" json:"userId"`
	Action     string         `gorm:"size:100;not null" json:"action"`
	EntityType string         `gorm:"size:50;not null;index" json:"entityType"`
	EntityID   string         `gorm:"size:64" json:"entityId"`
	Changes    datatypes.JSON `json:"changes,omitempty" swaggertype:"object"`
	IPAddress  string         `gorm:"size:64" json:"ipAddress"`
	StatusCode int            `json:"statusCode"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
