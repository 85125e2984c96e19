package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const assignPattern = `INSERT IGNORE INTO user_groups \(group_id, user_id, inserted_by\)\s+SELECT id, \?, \? FROM room_groups WHERE is_default=1 LIMIT 1`

func newGroupRepo(t *testing.T) (*GroupRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewGroupRepo(db), mock
}

func TestGroupRepoAssignDefault(t *testing.T) {
	repo, mock := newGroupRepo(t)

	mock.ExpectExec(assignPattern).WithArgs(uint64(3), uint64(1)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.AssignDefault(context.Background(), 3, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepoAssignDefaultAlreadyMember(t *testing.T) {
	repo, mock := newGroupRepo(t)

	mock.ExpectExec(assignPattern).WithArgs(uint64(3), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM room_groups WHERE is_default=1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	require.NoError(t, repo.AssignDefault(context.Background(), 3, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepoAssignDefaultMissingGroup(t *testing.T) {
	repo, mock := newGroupRepo(t)

	mock.ExpectExec(assignPattern).WithArgs(uint64(3), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM room_groups WHERE is_default=1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := repo.AssignDefault(context.Background(), 3, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
