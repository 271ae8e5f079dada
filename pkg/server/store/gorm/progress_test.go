package gorm

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/store"
)

var progressColumns = []string{"id", "handover_id", "task_key", "title", "position", "is_completed", "completed_at", "completed_by"}

func TestProgressStore_SummaryForHandovers(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewProgressStore(db)

	mock.ExpectQuery(`SELECT handover_id, .* FROM handover_progress WHERE handover_id IN \(\$1,\$2\) GROUP BY handover_id`).
		WithArgs("h1", "h2").
		WillReturnRows(sqlmock.NewRows([]string{"handover_id", "total", "completed"}).
			AddRow("h1", 4, 1).
			AddRow("h2", 2, 2))

	summaries, err := s.SummaryForHandovers(context.Background(), []string{"h1", "h2"})
	require.NoError(t, err)
	assert.Equal(t, model.TaskSummary{HandoverID: "h1", Total: 4, Completed: 1}, summaries["h1"])
	assert.Equal(t, 2, summaries["h2"].Completed)
}

func TestProgressStore_SummaryForNoHandovers(t *testing.T) {
	db, _ := newMockDB(t)
	s := NewProgressStore(db)

	summaries, err := s.SummaryForHandovers(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestProgressStore_ListForHandover(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewProgressStore(db)

	mock.ExpectQuery(`SELECT \* FROM "handover_progress" WHERE handover_id = \$1 ORDER BY position, created_at`).
		WithArgs(handoverID).
		WillReturnRows(sqlmock.NewRows(progressColumns).
			AddRow(progressID, handoverID, "keys", "Hand over keys", 0, true, time.Now(), "emp@example.com").
			AddRow("1b9e8d7c-6a5f-4e3d-8c2b-1a0f9e8d7c6b", handoverID, "docs", "Share docs", 1, false, nil, nil))

	rows, err := s.ListForHandover(context.Background(), handoverID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].IsCompleted)
	require.NotNil(t, rows[0].CompletedBy)
	assert.Equal(t, "emp@example.com", *rows[0].CompletedBy)
	assert.Nil(t, rows[1].CompletedAt)
}

func TestProgressStore_UpdateRecomputesHandover(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewProgressStore(db)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "handover_progress" WHERE id = \$1 AND handover_id = \$2 .*FOR UPDATE`).
		WithArgs(progressID, handoverID).
		WillReturnRows(sqlmock.NewRows(progressColumns).
			AddRow(progressID, handoverID, "keys", "Hand over keys", 0, false, nil, nil))
	mock.ExpectExec(`UPDATE "handover_progress" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "handovers" WHERE id = \$1`).
		WithArgs(handoverID).
		WillReturnRows(sqlmock.NewRows(handoverColumns).
			AddRow(handoverID, "Line 3", "boss@example.com", "not_started", "medium", 0, nil, nil))
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS total, .* FROM handover_progress WHERE handover_id = \$1`).
		WithArgs(handoverID).
		WillReturnRows(sqlmock.NewRows([]string{"total", "completed"}).AddRow(2, 1))
	mock.ExpectExec(`UPDATE "handovers" SET .* WHERE id = \$5`).
		WithArgs(nil, 50, model.StatusInProgress, now, handoverID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	done := true
	update, err := s.Update(context.Background(), handoverID, progressID, store.ProgressPatch{
		IsCompleted: &done,
		CompletedBy: "emp@example.com",
	})
	require.NoError(t, err)
	assert.True(t, update.Progress.IsCompleted)
	require.NotNil(t, update.Progress.CompletedAt)
	assert.Equal(t, now, *update.Progress.CompletedAt)
	assert.Equal(t, "emp@example.com", *update.Progress.CompletedBy)
	assert.Equal(t, 50, update.Handover.CompletionPercentage)
	assert.Equal(t, model.StatusInProgress, update.Handover.Status)
	assert.Nil(t, update.Handover.CompletedAt)
}

func TestProgressStore_UpdateLastTaskCompletes(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewProgressStore(db)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "handover_progress"`).
		WillReturnRows(sqlmock.NewRows(progressColumns).
			AddRow(progressID, handoverID, "keys", "Hand over keys", 0, false, nil, nil))
	mock.ExpectExec(`UPDATE "handover_progress" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "handovers"`).
		WillReturnRows(sqlmock.NewRows(handoverColumns).
			AddRow(handoverID, "Line 3", "boss@example.com", "in_progress", "medium", 50, nil, nil))
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS total`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "completed"}).AddRow(2, 2))
	mock.ExpectExec(`UPDATE "handovers" SET`).
		WithArgs(now, 100, model.StatusCompleted, now, handoverID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	done := true
	update, err := s.Update(context.Background(), handoverID, progressID, store.ProgressPatch{IsCompleted: &done})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, update.Handover.Status)
	assert.Equal(t, 100, update.Handover.CompletionPercentage)
	require.NotNil(t, update.Handover.CompletedAt)
}

func TestProgressStore_UpdateMissingTask(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewProgressStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "handover_progress"`).
		WillReturnRows(sqlmock.NewRows(progressColumns))
	mock.ExpectRollback()

	done := true
	_, err := s.Update(context.Background(), handoverID, progressID, store.ProgressPatch{IsCompleted: &done})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProgressStore_AddRequiresTitle(t *testing.T) {
	db, _ := newMockDB(t)
	s := NewProgressStore(db)

	_, err := s.Add(context.Background(), &model.HandoverProgress{HandoverID: handoverID})
	assert.ErrorIs(t, err, store.ErrInvalid)
}
