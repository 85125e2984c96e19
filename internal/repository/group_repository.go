package repository

import (
	"context"
	"database/sql"
)

// GroupRepo persists group membership in the `user_groups` table. The
// gateway only writes default-group membership at provisioning time; group
// administration happens elsewhere on the platform.
type GroupRepo struct{ DB *sql.DB }

func NewGroupRepo(db *sql.DB) *GroupRepo { return &GroupRepo{DB: db} }

// AssignDefault adds the user to the system default group and stamps the
// audit actor. Re-adding an existing membership is a no-op; a missing
// default group reports ErrNotFound.
func (r *GroupRepo) AssignDefault(ctx context.Context, userID, actorID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT IGNORE INTO user_groups (group_id, user_id, inserted_by)
		 SELECT id, ?, ? FROM room_groups WHERE is_default=1 LIMIT 1`,
		userID, actorID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either no default group is configured or the membership already
		// exists; only the former is a fault.
		var exists bool
		err := r.DB.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM room_groups WHERE is_default=1)").Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}
