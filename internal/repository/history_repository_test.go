package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/lolo262652/tasknot/internal/models"
)

// openMockDB backs a gorm connection with sqlmock, so the exact SQL the
// repository emits can be asserted without a live server.
func openMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	return db, mock
}

func TestHistoryRepository_ListEntriesJoinsTitleAndName(t *testing.T) {
	db, mock := openMockDB(t)
	repo := NewHistoryRepository(db)

	now := time.Now()
	title := "Joined Task"
	name := "Joined User"
	rows := sqlmock.NewRows([]string{
		"id", "task_id", "user_id", "action",
		"previous_status", "new_status", "created_at",
		"task_title", "user_name",
	}).
		AddRow("h1", "t1", "u1", "status_changed", "todo", "done", now, title, name).
		AddRow("h2", "gone", "gone", "created", nil, "todo", now.Add(-time.Minute), nil, nil)

	mock.ExpectQuery(`SELECT task_history\.\*, tasks\.title AS task_title, profiles\.full_name AS user_name FROM "task_history" LEFT JOIN tasks`).
		WillReturnRows(rows)

	entries, err := repo.ListEntries(50)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, "h1", entries[0].ID)
	require.NotNil(t, entries[0].TaskTitle)
	require.Equal(t, title, *entries[0].TaskTitle)
	require.NotNil(t, entries[0].UserName)
	require.Equal(t, name, *entries[0].UserName)
	require.Equal(t, models.HistoryActionStatusChanged, entries[0].Action)

	// Hard-deleted task: the record stays, the joined columns go null
	require.Nil(t, entries[1].TaskTitle)
	require.Nil(t, entries[1].UserName)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepository_ListEntriesPropagatesError(t *testing.T) {
	db, mock := openMockDB(t)
	repo := NewHistoryRepository(db)

	mock.ExpectQuery(`SELECT task_history`).WillReturnError(gorm.ErrInvalidDB)

	_, err := repo.ListEntries(50)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_DeleteIssuesSingleDelete(t *testing.T) {
	db, mock := openMockDB(t)
	repo := NewTaskRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "tasks" WHERE id = \$1`).
		WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete("t1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
