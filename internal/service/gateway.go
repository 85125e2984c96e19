package service

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/meetrix/room-gateway/internal/model"
	"github.com/meetrix/room-gateway/internal/queue"
	"github.com/meetrix/room-gateway/internal/repository"
	"github.com/meetrix/room-gateway/internal/utils"
)

// Gateway is the session-gated command dispatcher. Every privileged
// operation passes through PerformCall; no operation may bypass it.
type Gateway struct {
	Users    UserStore
	Sessions SessionStore
	Hashes   HashRecorder
	Clients  ClientRegistry
	Groups   GroupStore
	Policy   PasswordPolicy
	Events   EventPublisher

	BcryptCost      int
	DefaultTimezone string
	DefaultCountry  string
	DefaultLocaleID uint32
	RoomTokenSecret string
	RoomTokenTTLMin int

	locks *keyLock
}

// NewGateway wires the dispatcher with its collaborators.
func NewGateway(users UserStore, sessions SessionStore, hashes HashRecorder,
	clients ClientRegistry, groups GroupStore, policy PasswordPolicy, events EventPublisher) *Gateway {
	if users == nil || sessions == nil || hashes == nil || clients == nil || groups == nil || policy == nil {
		panic("nil collaborator passed to NewGateway")
	}
	return &Gateway{
		Users:    users,
		Sessions: sessions,
		Hashes:   hashes,
		Clients:  clients,
		Groups:   groups,
		Policy:   policy,
		Events:   events,

		BcryptCost:      12,
		DefaultTimezone: "Europe/Berlin",
		DefaultCountry:  "DE",
		DefaultLocaleID: 1,
		RoomTokenTTLMin: 60,

		locks: newKeyLock(),
	}
}

// Operation is a unit of work executed by the gate with the resolved
// session. It must return a well-formed envelope on success; a *CallError
// surfaces verbatim as ERROR, anything else as the opaque UNKNOWN.
type Operation func(ctx context.Context, sess *model.Session) (Result, error)

// Login verifies a login-or-email identifier and secret and mints a new
// session on success. Mismatch and missing user are indistinguishable: both
// report bad credentials, never whether the identifier exists. Lower-level
// faults surface only as UNKNOWN.
func (g *Gateway) Login(ctx context.Context, identifier, secret string) Result {
	u, err := g.Users.GetByLoginOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Error(msgBadCredentials)
		}
		log.Printf("gateway: login lookup failed: %v", err)
		return Unknown
	}
	if !utils.VerifyPassword(u.PasswordHash, secret) {
		return Error(msgBadCredentials)
	}
	// Externally provisioned accounts are not directly loginable here.
	if !u.Rights.Has(model.RightLogin) && !u.Rights.Has(model.RightSoap) {
		return Error(msgBadCredentials)
	}
	sess, err := g.Sessions.Create(ctx, u.ID, u.LocaleID)
	if err != nil {
		log.Printf("gateway: session create failed: %v", err)
		return Unknown
	}
	return Success(sess.ID)
}

// PerformCall is the single chokepoint for privileged operations. It
// resolves the session, checks the required right against the owning user,
// runs the operation under a per-session lock, and normalizes every failure
// into an envelope. Unexpected faults (including panics) are logged with
// full detail and surface only as UNKNOWN.
func (g *Gateway) PerformCall(ctx context.Context, sid string, required model.Right, op Operation) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("gateway: panic in gated operation: %v", r)
			res = Unknown
		}
	}()

	unlock := g.locks.Lock(sid)
	defer unlock()

	sess, err := g.Sessions.Get(ctx, sid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Error(msgInvalidSession)
		}
		log.Printf("gateway: session resolve failed: %v", err)
		return Unknown
	}
	owner, err := g.Users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Error(msgInvalidSession)
		}
		log.Printf("gateway: session owner lookup failed: %v", err)
		return Unknown
	}
	if !owner.Rights.Has(required) {
		return Error(msgAccessDenied)
	}

	res, err = op(ctx, &sess)
	if err != nil {
		var ce *CallError
		if errors.As(err, &ce) {
			return Error(ce.Msg)
		}
		log.Printf("gateway: operation failed: %v", err)
		return Unknown
	}
	return res
}

// ListUsers returns all non-deleted users. Requires the service-caller
// right.
func (g *Gateway) ListUsers(ctx context.Context, sid string) Result {
	return g.PerformCall(ctx, sid, model.RightSoap, func(ctx context.Context, _ *model.Session) (Result, error) {
		users, err := g.Users.List(ctx)
		if err != nil {
			return Result{}, err
		}
		dtos := make([]model.UserDTO, 0, len(users))
		for i := range users {
			dtos = append(dtos, users[i].DTO())
		}
		return SuccessData(dtos), nil
	})
}

// DeleteUser soft-deletes a user by id. Requires the administrative right.
func (g *Gateway) DeleteUser(ctx context.Context, sid string, id uint64) Result {
	return g.PerformCall(ctx, sid, model.RightAdmin, func(ctx context.Context, sess *model.Session) (Result, error) {
		if err := g.Users.SoftDelete(ctx, id, sess.UserID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return Result{}, NewCallError("user not found")
			}
			return Result{}, err
		}
		return Success("Deleted"), nil
	})
}

// DeleteUserByExternal soft-deletes a user by its external-identity pair.
// Requires the administrative right.
func (g *Gateway) DeleteUserByExternal(ctx context.Context, sid, externalType, externalID string) Result {
	return g.PerformCall(ctx, sid, model.RightAdmin, func(ctx context.Context, sess *model.Session) (Result, error) {
		u, err := g.Users.GetByExternal(ctx, externalID, externalType)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return Result{}, NewCallError("user not found")
			}
			return Result{}, err
		}
		if err := g.Users.SoftDelete(ctx, u.ID, sess.UserID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return Result{}, NewCallError("user not found")
			}
			return Result{}, err
		}
		return Success("Deleted"), nil
	})
}

// Kick removes a client from its room by public uid and publishes a kicked
// event when a client was actually removed. Requires the service-caller
// right.
func (g *Gateway) Kick(ctx context.Context, sid, uid string) Result {
	return g.PerformCall(ctx, sid, model.RightSoap, func(ctx context.Context, sess *model.Session) (Result, error) {
		kicked, err := g.Clients.Kick(ctx, uid)
		if err != nil {
			return Result{}, err
		}
		if !kicked {
			return Success("not kicked"), nil
		}
		g.publish(ctx, queue.RoomEvent{
			Type:       queue.EventClientKicked,
			ClientUID:  uid,
			ActorID:    sess.UserID,
			OccurredAt: time.Now().UTC().Format(time.RFC3339),
		})
		return Success("kicked"), nil
	})
}

// CountInRoom returns the number of clients currently in the room. No
// elevated right is needed beyond the generic service-caller right.
func (g *Gateway) CountInRoom(ctx context.Context, sid string, roomID uint64) Result {
	return g.PerformCall(ctx, sid, model.RightSoap, func(ctx context.Context, _ *model.Session) (Result, error) {
		n, err := g.Clients.CountByRoom(ctx, roomID)
		if err != nil {
			return Result{}, err
		}
		return Success(strconv.FormatInt(n, 10)), nil
	})
}

// Logout destroys the caller's session. Requires only the generic
// service-caller right.
func (g *Gateway) Logout(ctx context.Context, sid string) Result {
	return g.PerformCall(ctx, sid, model.RightSoap, func(ctx context.Context, sess *model.Session) (Result, error) {
		if err := g.Sessions.Delete(ctx, sess.ID); err != nil {
			return Result{}, err
		}
		return Success("Logged out"), nil
	})
}

// publish sends an event best-effort: a broker failure never fails the
// gateway operation that triggered it.
func (g *Gateway) publish(ctx context.Context, ev queue.RoomEvent) {
	if g.Events == nil {
		return
	}
	if err := g.Events.Publish(ctx, ev); err != nil {
		log.Printf("gateway: publish %s event failed: %v", ev.Type, err)
	}
}
