package services

import (
	"encoding/json"
	"testing"

	"nadlan/internal/models"
	"nadlan/internal/testutil"
)

func TestAuditService_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)

	svc.Log("pipeline", "UPDATE_SETTING", "setting", models.SettingExchangeRate, "10.0.0.1",
		map[string]any{"value": "3.91", "Password": "hunter22"})
	svc.Log("pipeline", "LOGOUT", "user", "u1", "", nil)

	var entries []models.AuditLog
	if err := db.Order("action DESC").Find(&entries).Error; err != nil {
		t.Fatalf("failed to load audit entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d audit entries, want 2", len(entries))
	}

	setting := entries[0]
	if setting.Action != "UPDATE_SETTING" || setting.ResourceID != models.SettingExchangeRate {
		t.Errorf("unexpected entry %+v", setting)
	}
	var changes map[string]string
	if err := json.Unmarshal(setting.Changes, &changes); err != nil {
		t.Fatalf("changes are not JSON: %v", err)
	}
	if changes["value"] != "3.91" {
		t.Errorf("value = %q, want 3.91", changes["value"])
	}
	if changes["Password"] != redacted {
		t.Errorf("password was stored as %q", changes["Password"])
	}

	if len(entries[1].Changes) != 0 {
		t.Errorf("expected no changes for logout, got %s", entries[1].Changes)
	}
}
