package gorm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/store"
)

const (
	handoverID = "6f1c2a5e-8d3b-4c1e-9a7f-2b4d6e8f0a1c"
	progressID = "0b9e8d7c-6a5f-4e3d-8c2b-1a0f9e8d7c6b"
)

func TestHandoversStore_ListForManager(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewHandoversStore(db)

	rows := sqlmock.NewRows(handoverColumns).
		AddRow(handoverID, "Line 3", "boss@example.com", "in_progress", "high", 40, nil, nil)
	mock.ExpectQuery(`SELECT \* FROM "handovers" WHERE lower\(manager_email\) = \$1 ORDER BY due_date ASC NULLS LAST, title`).
		WithArgs("boss@example.com").
		WillReturnRows(rows)

	handovers, err := s.ListForManager(context.Background(), " Boss@Example.com")
	require.NoError(t, err)
	require.Len(t, handovers, 1)
	assert.Equal(t, "Line 3", handovers[0].Title)
	assert.Equal(t, model.StatusInProgress, handovers[0].Status)
	assert.Equal(t, 40, handovers[0].CompletionPercentage)
}

func TestHandoversStore_ListForManagerError(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewHandoversStore(db)

	mock.ExpectQuery(`SELECT \* FROM "handovers"`).WillReturnError(errors.New("connection reset"))

	_, err := s.ListForManager(context.Background(), "boss@example.com")
	assert.ErrorContains(t, err, "connection reset")
}

func TestHandoversStore_ListScopedAndPaged(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewHandoversStore(db)

	mock.ExpectQuery(`SELECT count\(\w+\) FROM "handovers" WHERE .*lower\(outgoing_employee_email\) = \$1 OR lower\(incoming_employee_email\) = \$2.* AND status = \$3`).
		WithArgs("emp@example.com", "emp@example.com", "in_progress").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT \* FROM "handovers" WHERE .* ORDER BY created_at DESC LIMIT 5 OFFSET 5`).
		WillReturnRows(sqlmock.NewRows(handoverColumns).
			AddRow(handoverID, "Line 3", "boss@example.com", "in_progress", "high", 40, nil, nil))

	handovers, total, err := s.List(context.Background(), store.HandoverQuery{
		Scope:  store.Scope{ParticipantEmail: "Emp@example.com"},
		Status: "in_progress",
		Limit:  5,
		Offset: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	assert.Len(t, handovers, 1)
}

func TestHandoversStore_EmptyScopeMatchesNothing(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewHandoversStore(db)

	mock.ExpectQuery(`SELECT \* FROM "handovers" WHERE 1 = 0 AND id = \$1`).
		WithArgs(handoverID).
		WillReturnRows(sqlmock.NewRows(handoverColumns))

	_, err := s.Get(context.Background(), handoverID, store.Scope{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHandoversStore_GetRejectsMalformedID(t *testing.T) {
	db, _ := newMockDB(t)
	s := NewHandoversStore(db)

	_, err := s.Get(context.Background(), "not-a-uuid", store.Unrestricted)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHandoversStore_CreateSeedsProgress(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewHandoversStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "handovers"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "handover_progress"`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	h := &model.Handover{Title: "Line 3", ManagerEmail: "Boss@Example.com"}
	err := s.Create(context.Background(), h, model.TaskList{
		{Key: "keys", Title: "Hand over keys"},
		{Key: "docs", Title: "Share docs"},
	})
	require.NoError(t, err)
	assert.True(t, model.IsUUID(h.ID))
	assert.Equal(t, "boss@example.com", h.ManagerEmail)
	assert.Equal(t, model.StatusNotStarted, h.Status)
}

func TestHandoversStore_CreateCompletedStampsCompletion(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewHandoversStore(db)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "handovers"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	h := &model.Handover{Title: "Line 3", Status: model.StatusCompleted, CompletionPercentage: 30}
	require.NoError(t, s.Create(context.Background(), h, nil))
	require.NotNil(t, h.CompletedAt)
	assert.Equal(t, now, *h.CompletedAt)
	assert.Equal(t, 100, h.CompletionPercentage)
}

func TestHandoversStore_UpdateMustStayInScope(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewHandoversStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "handovers" WHERE .*lower\(manager_email\) = \$1.*id = \$2`).
		WithArgs("boss@example.com", handoverID).
		WillReturnRows(sqlmock.NewRows(handoverColumns).
			AddRow(handoverID, "Line 3", "boss@example.com", "in_progress", "high", 40, nil, nil))
	mock.ExpectRollback()

	rival := "Rival@example.com"
	_, err := s.Update(context.Background(), handoverID,
		store.Scope{ManagerEmail: "boss@example.com"},
		store.HandoverPatch{ManagerEmail: &rival})
	assert.ErrorIs(t, err, store.ErrForbidden)
}

func TestHandoversStore_CreateInvalid(t *testing.T) {
	db, _ := newMockDB(t)
	s := NewHandoversStore(db)

	err := s.Create(context.Background(), &model.Handover{Title: "x", Priority: "urgent"}, nil)
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestHandoversStore_CreateConflict(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewHandoversStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "handovers"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Detail: "Key (external_ref)=(HX-1) already exists."})
	mock.ExpectRollback()

	ref := "HX-1"
	err := s.Create(context.Background(), &model.Handover{Title: "x", ExternalRef: &ref}, nil)
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.ErrorContains(t, err, "already exists")
}

func TestHandoversStore_DeleteNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewHandoversStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "handovers" WHERE .*lower\(manager_email\) = \$1.*department_id = \$2.* AND id = \$3`).
		WithArgs("boss@example.com", "dept-1", handoverID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.Delete(context.Background(), handoverID, store.Scope{ManagerEmail: "boss@example.com", DepartmentID: "dept-1"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHandoversStore_UpsertCreates(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewHandoversStore(db)
	s.now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "handovers" WHERE external_ref = \$1`).
		WithArgs("HX-7").
		WillReturnRows(sqlmock.NewRows(handoverColumns))
	mock.ExpectExec(`INSERT INTO "handovers"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ref := "HX-7"
	h := &model.Handover{Title: "Forklift", ExternalRef: &ref, Status: model.StatusCompleted}
	created, err := s.Upsert(context.Background(), h)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, h.CompletedAt)
	assert.Equal(t, 100, h.CompletionPercentage)
}

func TestHandoversStore_UpsertUpdatesExisting(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewHandoversStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "handovers" WHERE external_ref = \$1`).
		WithArgs("HX-7").
		WillReturnRows(sqlmock.NewRows(handoverColumns).
			AddRow(handoverID, "Forklift", "boss@example.com", "in_progress", "medium", 50, "dept-1", "HX-7"))
	mock.ExpectExec(`UPDATE "handovers" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ref := "HX-7"
	h := &model.Handover{Title: "Forklift v2", ExternalRef: &ref, Status: model.StatusInProgress, CompletionPercentage: 60}
	created, err := s.Upsert(context.Background(), h)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, handoverID, h.ID)
	require.NotNil(t, h.DepartmentID)
	assert.Equal(t, "dept-1", *h.DepartmentID)
}

func TestHandoversStore_UpsertRequiresRef(t *testing.T) {
	db, _ := newMockDB(t)
	s := NewHandoversStore(db)

	_, err := s.Upsert(context.Background(), &model.Handover{Title: "x"})
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestScopeAllows(t *testing.T) {
	dept := "dept-1"
	h := &model.Handover{
		ManagerEmail:          "boss@example.com",
		DepartmentID:          &dept,
		IncomingEmployeeEmail: "new@example.com",
	}

	assert.True(t, store.Unrestricted.Allows(h))
	assert.True(t, store.Scope{ManagerEmail: "BOSS@example.com"}.Allows(h))
	assert.True(t, store.Scope{ManagerEmail: "other@example.com", DepartmentID: "dept-1"}.Allows(h))
	assert.True(t, store.Scope{ParticipantEmail: "new@example.com"}.Allows(h))
	assert.False(t, store.Scope{ParticipantEmail: "boss@example.com"}.Allows(h))
	assert.False(t, store.Scope{}.Allows(h))
	assert.True(t, store.Scope{}.Empty())
}
