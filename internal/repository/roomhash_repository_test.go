package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetrix/room-gateway/internal/model"
)

func newRoomHashRepo(t *testing.T) (*RoomHashRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRoomHashRepo(db), mock
}

func hashRow(reuse bool, usedAt any) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"hash", "session_id", "room_id", "moderator",
		"av_test", "reuse", "recording_id", "allow_recording", "used_at", "created_at"}).
		AddRow("h1", "sid-1", 5, true, false, reuse, nil, false, usedAt, time.Now().UTC())
}

const claimPattern = `UPDATE room_hashes SET used_at=UTC_TIMESTAMP\(\) WHERE hash=\? AND used_at IS NULL`

func TestRoomHashRepoRedeemClaimsFirstUse(t *testing.T) {
	repo, mock := newRoomHashRepo(t)
	now := time.Now().UTC()

	mock.ExpectExec(claimPattern).WithArgs("h1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM room_hashes WHERE hash=\?`).WithArgs("h1").
		WillReturnRows(hashRow(false, now))

	h, err := repo.Redeem(context.Background(), "h1")
	require.NoError(t, err)
	assert.Equal(t, "sid-1", h.SessionID)
	assert.Equal(t, uint64(5), h.RoomID)
	require.NotNil(t, h.UsedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomHashRepoRedeemConsumedSingleUse(t *testing.T) {
	repo, mock := newRoomHashRepo(t)
	now := time.Now().UTC()

	// Claim updates nothing: used_at was already stamped.
	mock.ExpectExec(claimPattern).WithArgs("h1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM room_hashes WHERE hash=\?`).WithArgs("h1").
		WillReturnRows(hashRow(false, now))

	_, err := repo.Redeem(context.Background(), "h1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomHashRepoRedeemReuseAfterFirstUse(t *testing.T) {
	repo, mock := newRoomHashRepo(t)
	now := time.Now().UTC()

	// used_at is already set, so the claim is a no-op; the reuse flag keeps
	// the hash redeemable. RowsAffected reports changed rows under the MySQL
	// driver defaults, so a zero here must not be read as a missing hash.
	mock.ExpectExec(claimPattern).WithArgs("h1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM room_hashes WHERE hash=\?`).WithArgs("h1").
		WillReturnRows(hashRow(true, now))

	h, err := repo.Redeem(context.Background(), "h1")
	require.NoError(t, err)
	assert.True(t, h.Reuse)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomHashRepoRedeemUnknownHash(t *testing.T) {
	repo, mock := newRoomHashRepo(t)

	mock.ExpectExec(claimPattern).WithArgs("nope").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM room_hashes WHERE hash=\?`).WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"hash", "session_id", "room_id", "moderator",
			"av_test", "reuse", "recording_id", "allow_recording", "used_at", "created_at"}))

	_, err := repo.Redeem(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomHashRepoCreateStampsUTC(t *testing.T) {
	repo, mock := newRoomHashRepo(t)

	mock.ExpectExec(`INSERT INTO room_hashes\s+\(hash, session_id, room_id, moderator, av_test, reuse, recording_id, allow_recording, created_at\)\s+VALUES \(\?,\?,\?,\?,\?,\?,\?,\?,UTC_TIMESTAMP\(\)\)`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	hash, err := repo.Create(context.Background(), "sid-1", model.RoomOptions{RoomID: 5})
	require.NoError(t, err)
	assert.Len(t, hash, 64)
	assert.NoError(t, mock.ExpectationsWereMet())
}
