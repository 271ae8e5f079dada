package audit

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap/zapcore"

	"github.com/doodlesbykumbi/handover-tracker/pkg/logger"
)

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.hostname = "web-1"
	logger.pid = 42
	logger.now = func() time.Time { return time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC) }
	logger.SetWriter(&buf)

	logger.Log(HandoverEvent{
		Actor:      "boss@example.com",
		ClientIP:   "10.0.0.1",
		HandoverID: "h-1",
		Operation:  OperationCreate,
		Success:    true,
	})

	want := `<134>1 2025-03-10T09:30:00.000Z web-1 handover-tracker 42 handover-create ` +
		`[action@32473 operation="create" result="success"][actor@32473 email="boss@example.com"]` +
		`[client@32473 ip="10.0.0.1"][subject@32473 handover="h-1"] boss@example.com created handover h-1` + "\n"
	if got := buf.String(); got != want {
		t.Errorf("Log() =\n%q\nwant\n%q", got, want)
	}
}

func TestHandoverEvent(t *testing.T) {
	tests := []struct {
		name      string
		event     HandoverEvent
		wantMsg   string
		wantSev   Severity
		wantMsgID string
	}{
		{
			name:      "successful update",
			event:     HandoverEvent{Actor: "a@example.com", HandoverID: "h-1", Operation: OperationUpdate, Success: true},
			wantMsg:   "a@example.com updated handover h-1",
			wantSev:   SeverityInfo,
			wantMsgID: "handover-update",
		},
		{
			name:      "failed delete",
			event:     HandoverEvent{Actor: "a@example.com", HandoverID: "h-1", Operation: OperationDelete, ErrorMessage: "forbidden"},
			wantMsg:   "a@example.com tried to delete handover h-1: forbidden",
			wantSev:   SeverityWarning,
			wantMsgID: "handover-delete",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Message(); got != tt.wantMsg {
				t.Errorf("Message() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.event.Severity(); got != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", got, tt.wantSev)
			}
			if got := tt.event.Facility(); got != FacilityLocal0 {
				t.Errorf("Facility() = %v, want %v", got, FacilityLocal0)
			}
			if got := tt.event.MessageID(); got != tt.wantMsgID {
				t.Errorf("MessageID() = %q, want %q", got, tt.wantMsgID)
			}
		})
	}
}

func TestProgressEvent(t *testing.T) {
	event := ProgressEvent{
		Actor:      "emp@example.com",
		HandoverID: "h-1",
		TaskKey:    "keys",
		Completed:  true,
		Percentage: 50,
		Success:    true,
	}

	if got := event.Message(); got != "emp@example.com completed task keys of handover h-1 (50%)" {
		t.Errorf("Message() = %q", got)
	}
	sd := event.StructuredData()
	if sd[SDIDSubject]["percentage"] != "50" {
		t.Errorf("subject.percentage = %q, want 50", sd[SDIDSubject]["percentage"])
	}
	if sd[SDIDAction]["completed"] != "true" {
		t.Errorf("action.completed = %q, want true", sd[SDIDAction]["completed"])
	}

	event.Success = false
	event.ErrorMessage = "not found"
	if got := event.Message(); !strings.Contains(got, "tried to update task keys") {
		t.Errorf("Message() = %q", got)
	}
	if _, ok := event.StructuredData()[SDIDSubject]["percentage"]; ok {
		t.Error("failed progress event should not carry a percentage")
	}
}

func TestSyncEvent(t *testing.T) {
	event := SyncEvent{Trigger: "api", SheetID: "sheet-1", RowsRead: 10, Created: 2, Updated: 7, Skipped: 1, Success: true}

	if got := event.Message(); got != "sheet sync via api read 10 rows: 2 created, 7 updated, 1 skipped" {
		t.Errorf("Message() = %q", got)
	}
	if event.Severity() != SeverityNotice {
		t.Errorf("Severity() = %v, want notice", event.Severity())
	}
	if event.StructuredData()[SDIDSync]["updated"] != "7" {
		t.Errorf("sync.updated = %q", event.StructuredData()[SDIDSync]["updated"])
	}

	failed := SyncEvent{Trigger: "cli", ErrorMessage: "sheet not found"}
	if failed.Severity() != SeverityError {
		t.Errorf("Severity() = %v, want error", failed.Severity())
	}
	if got := failed.Message(); got != "sheet sync via cli failed: sheet not found" {
		t.Errorf("Message() = %q", got)
	}
}

func TestCronEvent(t *testing.T) {
	rejected := CronEvent{ClientIP: "1.2.3.4"}
	if rejected.Facility() != FacilityAuthPriv || rejected.Severity() != SeverityWarning {
		t.Errorf("rejected cron event: facility %d severity %d", rejected.Facility(), rejected.Severity())
	}
	if rejected.StructuredData()[SDIDAction]["result"] != "failure" {
		t.Error("rejected cron event should record failure")
	}

	ok := CronEvent{Target: "https://sync.example.com", Status: 200, Authorized: true, Success: true}
	if got := ok.Message(); got != "cron triggered https://sync.example.com (status 200)" {
		t.Errorf("Message() = %q", got)
	}
	if ok.StructuredData()[SDIDAction]["status"] != "200" {
		t.Errorf("action.status = %q", ok.StructuredData()[SDIDAction]["status"])
	}

	failed := CronEvent{Target: "https://sync.example.com", Status: 502, Authorized: true, ErrorMessage: "bad gateway"}
	if failed.Severity() != SeverityError {
		t.Errorf("Severity() = %v, want error", failed.Severity())
	}
}

func TestAuditToggle(t *testing.T) {
	originalEnabled := auditEnabled
	defer func() {
		auditEnabled = originalEnabled
	}()

	SetEnabled(false)
	if IsEnabled() {
		t.Error("Expected audit to be disabled")
	}

	SetEnabled(true)
	if !IsEnabled() {
		t.Error("Expected audit to be enabled")
	}
}

func TestEscapeSDValue(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"simple", `"simple"`},
		{`with"quote`, `"with\"quote"`},
		{`with\backslash`, `"with\\backslash"`},
		{`with]bracket`, `"with\]bracket"`},
		{`all"special\chars]`, `"all\"special\\chars\]"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := escapeSDValue(tt.input)
			if got != tt.want {
				t.Errorf("escapeSDValue(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// withFailingStore points DefaultStore at a database that rejects n inserts.
func withFailingStore(t *testing.T, n int) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < n; i++ {
		mock.ExpectExec(`INSERT INTO audit_messages`).WillReturnError(errors.New("disk full"))
	}

	storeInitOnce.Do(func() {})
	originalStore, originalEnabled := DefaultStore, auditEnabled
	DefaultStore = NewStoreWithDB(db)
	SetEnabled(true)
	DefaultLogger.SetWriter(&bytes.Buffer{})

	t.Cleanup(func() {
		DefaultStore = originalStore
		auditEnabled = originalEnabled
		DefaultLogger.SetWriter(os.Stdout)
		SetLogger(logger.Nop())
		_ = db.Close()
	})
}

func TestLogReportsStoreFailures(t *testing.T) {
	withFailingStore(t, 1)
	lggr, logs := logger.TestObserved(t, zapcore.ErrorLevel)
	SetLogger(lggr)

	Log(CronEvent{Success: true, Status: 200})

	entries := logs.FilterMessage("Failed to save audit event").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 store failure to be logged, got %d", len(entries))
	}
	if got := entries[0].LoggerName; !strings.HasSuffix(got, "audit") {
		t.Errorf("expected audit logger name, got %q", got)
	}
}

func TestSetLoggerWhileLogging(t *testing.T) {
	const writers = 8
	withFailingStore(t, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetLogger(logger.Nop())
		}()
		go func() {
			defer wg.Done()
			Log(CronEvent{Success: false, Status: 500})
		}()
	}
	wg.Wait()
}
