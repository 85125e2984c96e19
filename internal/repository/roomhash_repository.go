package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/meetrix/room-gateway/internal/model"
	"github.com/meetrix/room-gateway/internal/utils"
)

// RoomHashRepo records the binding between a session and room-entry
// parameters. It is the hash-recording collaborator of the gateway: Create
// mints the opaque token, Redeem consumes it.
type RoomHashRepo struct{ DB *sql.DB }

func NewRoomHashRepo(db *sql.DB) *RoomHashRepo { return &RoomHashRepo{DB: db} }

// Create mints a hash bound to the session and options. The returned token
// is the success payload of the issue operation.
func (r *RoomHashRepo) Create(ctx context.Context, sessionID string, opts model.RoomOptions) (string, error) {
	hash, err := utils.NewOpaqueToken()
	if err != nil {
		return "", err
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO room_hashes
			(hash, session_id, room_id, moderator, av_test, reuse, recording_id, allow_recording, created_at)
		 VALUES (?,?,?,?,?,?,?,?,UTC_TIMESTAMP())`,
		hash, sessionID, opts.RoomID, opts.Moderator, opts.ShowAudioVideoTest,
		opts.AllowSameURLMultipleTimes, opts.RecordingID, opts.AllowRecording)
	if err != nil {
		return "", err
	}
	return hash, nil
}

// Redeem atomically consumes a hash. Single-use hashes can be redeemed
// exactly once; reuse-flagged ones any number of times. A consumed or
// unknown hash returns ErrNotFound.
func (r *RoomHashRepo) Redeem(ctx context.Context, hash string) (model.RoomHash, error) {
	// Claim the first redemption. Concurrent redeemers of the same hash race
	// on this update; exactly one of them stamps used_at.
	res, err := r.DB.ExecContext(ctx,
		"UPDATE room_hashes SET used_at=UTC_TIMESTAMP() WHERE hash=? AND used_at IS NULL", hash)
	if err != nil {
		return model.RoomHash{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.RoomHash{}, err
	}
	claimed := n > 0

	var (
		h           model.RoomHash
		recordingID sql.NullInt64
		usedAt      sql.NullTime
	)
	err = r.DB.QueryRowContext(ctx,
		`SELECT hash, session_id, room_id, moderator, av_test, reuse,
			recording_id, allow_recording, used_at, created_at
		 FROM room_hashes WHERE hash=? LIMIT 1`, hash).
		Scan(&h.Hash, &h.SessionID, &h.RoomID, &h.Moderator, &h.AVTest, &h.Reuse,
			&recordingID, &h.AllowRecording, &usedAt, &h.CreatedAt)
	if err == sql.ErrNoRows {
		return model.RoomHash{}, ErrNotFound
	}
	if err != nil {
		return model.RoomHash{}, err
	}
	if recordingID.Valid {
		id := uint64(recordingID.Int64)
		h.RecordingID = &id
	}
	if usedAt.Valid {
		t := usedAt.Time
		h.UsedAt = &t
	}
	// A losing redeemer of an already-consumed single-use hash gets nothing;
	// reuse-flagged hashes stay redeemable after the first claim.
	if !claimed && !h.Reuse {
		return model.RoomHash{}, ErrNotFound
	}
	return h, nil
}

// DeleteOlderThan removes hashes created before the cutoff, used by the
// same sweep that expires sessions.
func (r *RoomHashRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM room_hashes WHERE reuse=0 AND used_at IS NOT NULL AND created_at <= ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
