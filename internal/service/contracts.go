package service

import (
	"context"

	"github.com/meetrix/room-gateway/internal/model"
	"github.com/meetrix/room-gateway/internal/queue"
)

// UserStore is the persistence collaborator for user accounts. Deletion is
// a soft delete; lookups never return deleted users.
type UserStore interface {
	GetByLoginOrEmail(ctx context.Context, identifier string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByExternal(ctx context.Context, externalID, externalType string) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, u *model.User, updatedBy uint64) error
	SoftDelete(ctx context.Context, id, deletedBy uint64) error
}

// SessionStore creates, resolves, mutates and expires sessions keyed by an
// opaque session id. Get on an expired non-permanent session reports
// repository.ErrNotFound.
type SessionStore interface {
	Create(ctx context.Context, userID uint64, localeID uint32) (model.Session, error)
	Get(ctx context.Context, id string) (model.Session, error)
	Update(ctx context.Context, s *model.Session) error
	Touch(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	SweepExpired(ctx context.Context) (int64, error)
}

// HashRecorder binds a session and room options to an opaque token and
// consumes tokens on redemption.
type HashRecorder interface {
	Create(ctx context.Context, sessionID string, opts model.RoomOptions) (string, error)
	Redeem(ctx context.Context, hash string) (model.RoomHash, error)
}

// GroupStore stamps group membership. Every account provisioned through
// the gateway joins the system default group; group management itself lives
// outside this service.
type GroupStore interface {
	AssignDefault(ctx context.Context, userID, actorID uint64) error
}

// ClientRegistry tracks live room clients: occupancy queries and kicks.
type ClientRegistry interface {
	Join(ctx context.Context, uid string, roomID uint64) error
	Kick(ctx context.Context, uid string) (bool, error)
	CountByRoom(ctx context.Context, roomID uint64) (int64, error)
	ListByRoom(ctx context.Context, roomID uint64) ([]string, error)
}

// PasswordPolicy validates a candidate secret in the context of the
// candidate's profile. A nil/empty slice means the secret passes; otherwise
// one message per violated rule is returned.
type PasswordPolicy interface {
	Validate(password string, candidate *model.User) []string
}

// EventPublisher pushes room events (entries, kicks) to the broker. Event
// delivery is best-effort; failures never fail the triggering operation.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.RoomEvent) error
}
