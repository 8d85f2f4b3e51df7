package services

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"nadlan/internal/logger"
	"nadlan/internal/models"
)

const redacted = "[redacted]"

// Keys whose values never reach the audit trail.
var sensitiveAuditKeys = map[string]struct{}{
	"password":     {},
	"refreshtoken": {},
	"accesstoken":  {},
	"apikey":       {},
}

type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log appends an entry to the audit trail. A failed write is logged and
// swallowed so it never fails the mutation being audited.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      encodeChanges(action, changes),
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Named("audit").Errorw("failed to record audit entry",
			"error", err,
			"actor", userID,
			"action", action,
			"resource", resourceType+"/"+resourceID,
		)
	}
}

func encodeChanges(action string, changes map[string]any) datatypes.JSON {
	if len(changes) == 0 {
		return nil
	}

	clean := make(map[string]any, len(changes))
	for k, v := range changes {
		if _, ok := sensitiveAuditKeys[strings.ToLower(k)]; ok {
			v = redacted
		}
		clean[k] = v
	}

	data, err := json.Marshal(clean)
	if err != nil {
		logger.Named("audit").Warnw("audit changes not serializable", "error", err, "action", action)
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}
