package services

import (
	"context"
	"testing"
	"time"

	"github.com/inklutec-dev/InkluDocs/internal/models"
)

func TestNewLogServiceNilDB(t *testing.T) {
	if _, err := NewLogService(nil); err == nil {
		t.Fatalf("NewLogService nil db: expected error")
	}
}

func TestLogServiceCreateLog(t *testing.T) {
	db := openTestDB(t)

	service, err := NewLogService(db)
	if err != nil {
		t.Fatalf("NewLogService: %v", err)
	}

	message := "started"
	eventID := "event-1"
	if err := service.CreateLog(context.Background(), &eventID, LogActionUpload, LogOutcomeSuccess, &message); err != nil {
		t.Fatalf("CreateLog: %v", err)
	}

	var logs []models.AuditLog
	if err := db.Find(&logs).Error; err != nil {
		t.Fatalf("select logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("logs length = %d, want 1", len(logs))
	}
	if logs[0].ID == "" {
		t.Fatalf("log id is empty")
	}
	if logs[0].Action != LogActionUpload {
		t.Fatalf("Action = %q, want %q", logs[0].Action, LogActionUpload)
	}
	if logs[0].Outcome != LogOutcomeSuccess {
		t.Fatalf("Outcome = %q, want %q", logs[0].Outcome, LogOutcomeSuccess)
	}
	if logs[0].Message == nil || *logs[0].Message != "started" {
		t.Fatalf("Message = %v, want %q", logs[0].Message, "started")
	}
	if logs[0].EventID == nil || *logs[0].EventID != eventID {
		t.Fatalf("EventID = %v, want %q", logs[0].EventID, eventID)
	}
	if logs[0].Datetime.IsZero() {
		t.Fatalf("Datetime is zero")
	}
}

func TestLogServiceCreateLogEmptyAction(t *testing.T) {
	db := openTestDB(t)

	service, err := NewLogService(db)
	if err != nil {
		t.Fatalf("NewLogService: %v", err)
	}

	if err := service.CreateLog(context.Background(), nil, "", LogOutcomeSuccess, nil); err == nil {
		t.Fatalf("CreateLog empty action: expected error")
	}
}

func TestLogServiceGetLogs(t *testing.T) {
	db := openTestDB(t)

	now := time.Date(2025, time.March, 2, 3, 4, 5, 0, time.UTC)
	logs := []models.AuditLog{
		{ID: "log-1", Datetime: now.Add(-time.Hour), Action: LogActionUpload, Outcome: LogOutcomeSuccess},
		{ID: "log-2", Datetime: now, Action: LogActionUpload, Outcome: LogOutcomeFail},
	}
	if err := db.Create(&logs).Error; err != nil {
		t.Fatalf("insert logs: %v", err)
	}

	service, err := NewLogService(db)
	if err != nil {
		t.Fatalf("NewLogService: %v", err)
	}

	latest, err := service.GetLogs(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("GetLogs: %v", err)
	}
	if len(latest) != 1 {
		t.Fatalf("logs length = %d, want 1", len(latest))
	}
	if latest[0].ID != "log-2" {
		t.Fatalf("latest id = %q, want %q", latest[0].ID, "log-2")
	}
}

func TestLogServiceGetLogsEventID(t *testing.T) {
	db := openTestDB(t)

	eventA := "event-a"
	eventB := "event-b"
	logs := []models.AuditLog{
		{ID: "log-1", EventID: &eventA, Datetime: time.Now().Add(-time.Hour), Action: LogActionAltTextRun, Outcome: LogOutcomeSuccess},
		{ID: "log-2", EventID: &eventB, Datetime: time.Now(), Action: LogActionAltTextRun, Outcome: LogOutcomeFail},
	}
	if err := db.Create(&logs).Error; err != nil {
		t.Fatalf("insert logs: %v", err)
	}

	service, err := NewLogService(db)
	if err != nil {
		t.Fatalf("NewLogService: %v", err)
	}

	filtered, err := service.GetLogs(context.Background(), 10, eventA)
	if err != nil {
		t.Fatalf("GetLogs: %v", err)
	}
	if len(filtered) != 1 {
		t.Fatalf("logs length = %d, want 1", len(filtered))
	}
	if filtered[0].ID != "log-1" {
		t.Fatalf("log id = %q, want %q", filtered[0].ID, "log-1")
	}
}

func TestLogServiceTruncateLogs(t *testing.T) {
	db := openTestDB(t)

	logs := []models.AuditLog{
		{ID: "log-1", Datetime: time.Now(), Action: LogActionUpload, Outcome: LogOutcomeSuccess},
		{ID: "log-2", Datetime: time.Now(), Action: LogActionUpload, Outcome: LogOutcomeFail},
	}
	if err := db.Create(&logs).Error; err != nil {
		t.Fatalf("insert logs: %v", err)
	}

	service, err := NewLogService(db)
	if err != nil {
		t.Fatalf("NewLogService: %v", err)
	}

	deleted, err := service.TruncateLogs(context.Background())
	if err != nil {
		t.Fatalf("TruncateLogs: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}

	var remaining []models.AuditLog
	if err := db.Find(&remaining).Error; err != nil {
		t.Fatalf("select logs: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("remaining logs = %d, want 0", len(remaining))
	}
}

func TestLogServiceNilReceiver(t *testing.T) {
	var service *LogService
	if err := service.CreateLog(context.Background(), nil, LogActionUpload, LogOutcomeSuccess, nil); err == nil {
		t.Fatalf("CreateLog nil receiver: expected error")
	}
	if _, err := service.GetLogs(context.Background(), 1, ""); err == nil {
		t.Fatalf("GetLogs nil receiver: expected error")
	}
}
