package models

import "gorm.io/datatypes"

// AuditLog records a mutation performed through the API.
type AuditLog struct {
	Base
	UserID       string         `gorm:"not null;index" json:"userId"`
	Action       string         `gorm:"not null" json:"action"`
	ResourceType string         `gorm:"not null" json:"resourceType"`
	ResourceID   string         `gorm:"index" json:"resourceId"`
	IPAddress    string         `json:"ipAddress"`
	Changes      datatypes.JSON `json:"changes,omitempty"`
}
