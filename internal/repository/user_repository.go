package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/meetrix/room-gateway/internal/model"
)

// UserRepo persists user accounts in the `users` table. Deletion is always
// a soft delete: the deleted flag is set and audit fields stamped.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, login, email, password_hash, first_name, last_name,
	locale_id, timezone, address_country, address_town, address_street,
	external_id, external_type, type, rights, deleted,
	inserted_by, updated_by, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var (
		u      model.User
		rights string
	)
	err := row.Scan(&u.ID, &u.Login, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.LocaleID, &u.Timezone,
		&u.Address.Country, &u.Address.Town, &u.Address.Street,
		&u.ExternalID, &u.ExternalType, &u.Type, &rights, &u.Deleted,
		&u.InsertedBy, &u.UpdatedBy, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.Rights = model.ParseRights(rights)
	return u, nil
}

// GetByLoginOrEmail fetches a non-deleted user whose login or email matches
// the identifier. Returns ErrNotFound when no such user exists.
func (r *UserRepo) GetByLoginOrEmail(ctx context.Context, identifier string) (model.User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE (login=? OR email=?) AND deleted=0 LIMIT 1",
		identifier, identifier))
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByID fetches a non-deleted user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? AND deleted=0 LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByExternal fetches a non-deleted user by its external-identity pair.
// The pair is unique among non-deleted users when both parts are non-empty.
func (r *UserRepo) GetByExternal(ctx context.Context, externalID, externalType string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE external_id=? AND external_type=? AND deleted=0 LIMIT 1",
		externalID, externalType))
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// List returns all non-deleted users.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE deleted=0 ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Create inserts a new user and populates its generated id.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (login, email, password_hash, first_name, last_name,
			locale_id, timezone, address_country, address_town, address_street,
			external_id, external_type, type, rights, inserted_by, updated_by)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		strings.ToLower(strings.TrimSpace(u.Login)), strings.ToLower(strings.TrimSpace(u.Email)),
		u.PasswordHash, u.FirstName, u.LastName,
		u.LocaleID, u.Timezone, u.Address.Country, u.Address.Town, u.Address.Street,
		u.ExternalID, u.ExternalType, u.Type, u.Rights.String(), u.InsertedBy, u.UpdatedBy)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// Update rewrites the mutable fields of a user and stamps the audit actor.
func (r *UserRepo) Update(ctx context.Context, u *model.User, updatedBy uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET email=?, first_name=?, last_name=?, locale_id=?,
			timezone=?, address_country=?, address_town=?, address_street=?,
			external_id=?, external_type=?, type=?, rights=?,
			updated_by=?, updated_at=UTC_TIMESTAMP()
		 WHERE id=?`,
		u.Email, u.FirstName, u.LastName, u.LocaleID,
		u.Timezone, u.Address.Country, u.Address.Town, u.Address.Street,
		u.ExternalID, u.ExternalType, u.Type, u.Rights.String(),
		updatedBy, u.ID)
	if err != nil {
		return err
	}
	u.UpdatedBy = updatedBy
	return nil
}

// SoftDelete flags a user deleted and stamps the audit actor. Deleting an
// already-deleted or unknown user returns ErrNotFound.
func (r *UserRepo) SoftDelete(ctx context.Context, id, deletedBy uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET deleted=1, updated_by=?, updated_at=UTC_TIMESTAMP() WHERE id=? AND deleted=0",
		deletedBy, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
