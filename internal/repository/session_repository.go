package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/meetrix/room-gateway/internal/model"
	"github.com/meetrix/room-gateway/internal/utils"
)

// SessionRepo persists sessions in the `sessions` table. Non-permanent
// sessions expire ttl after they were last touched; Get filters expired
// rows so an expired session is indistinguishable from a missing one.
// Timestamps are written in UTC and compared against UTC_TIMESTAMP(), so
// the expiry rule is independent of the server time zone.
type SessionRepo struct {
	DB  *sql.DB
	TTL time.Duration
}

func NewSessionRepo(db *sql.DB, ttl time.Duration) *SessionRepo {
	return &SessionRepo{DB: db, TTL: ttl}
}

// Create mints a new session for the given user and locale.
func (r *SessionRepo) Create(ctx context.Context, userID uint64, localeID uint32) (model.Session, error) {
	id, err := utils.NewOpaqueToken()
	if err != nil {
		return model.Session{}, err
	}
	now := time.Now().UTC()
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, locale_id, payload, permanent, created_at, last_used_at)
		 VALUES (?,?,?,'',0,?,?)`,
		id, userID, localeID, now, now)
	if err != nil {
		return model.Session{}, err
	}
	return model.Session{
		ID: id, UserID: userID, LocaleID: localeID,
		CreatedAt: now, LastUsedAt: now,
	}, nil
}

// Get resolves an unexpired session. Expired non-permanent sessions behave
// as ErrNotFound.
func (r *SessionRepo) Get(ctx context.Context, id string) (model.Session, error) {
	var s model.Session
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, locale_id, payload, permanent, created_at, last_used_at
		 FROM sessions
		 WHERE id=? AND (permanent=1 OR last_used_at > UTC_TIMESTAMP() - INTERVAL ? SECOND)
		 LIMIT 1`,
		id, int64(r.TTL/time.Second)).
		Scan(&s.ID, &s.UserID, &s.LocaleID, &s.Payload, &s.Permanent, &s.CreatedAt, &s.LastUsedAt)
	if err == sql.ErrNoRows {
		return model.Session{}, ErrNotFound
	}
	if err != nil {
		return model.Session{}, err
	}
	return s, nil
}

// Update upserts the mutable session fields (payload, permanent flag) and
// refreshes the last-touched timestamp. Keyed by session id, idempotent.
func (r *SessionRepo) Update(ctx context.Context, s *model.Session) error {
	now := time.Now().UTC()
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, locale_id, payload, permanent, created_at, last_used_at)
		 VALUES (?,?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE payload=VALUES(payload), permanent=VALUES(permanent),
			last_used_at=VALUES(last_used_at)`,
		s.ID, s.UserID, s.LocaleID, s.Payload, s.Permanent, s.CreatedAt, now)
	if err != nil {
		return err
	}
	s.LastUsedAt = now
	return nil
}

// Touch refreshes the last-used timestamp of a session.
func (r *SessionRepo) Touch(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET last_used_at=UTC_TIMESTAMP() WHERE id=?", id)
	return err
}

// Delete removes a session (explicit logout).
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE id=?", id)
	return err
}

// SweepExpired deletes non-permanent sessions whose last-touched timestamp
// is older than the TTL and returns how many were removed.
func (r *SessionRepo) SweepExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM sessions WHERE permanent=0 AND last_used_at <= UTC_TIMESTAMP() - INTERVAL ? SECOND",
		int64(r.TTL/time.Second))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
