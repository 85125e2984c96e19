package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/meetrix/room-gateway/internal/model"
	"github.com/meetrix/room-gateway/internal/queue"
	"github.com/meetrix/room-gateway/internal/repository"
	"github.com/meetrix/room-gateway/internal/utils"
)

// IssueRoomHash binds the caller's session to room-entry parameters and the
// supplied external identity, producing an opaque access token. When the
// reuse flag is requested the owning session is flipped permanent so the
// token may be redeemed repeatedly; the serialized identity payload is
// always attached to the session. Requires the service-caller right.
//
// The gate already serializes this sequence per session id, so a concurrent
// issue against the same sid cannot lose the permanent flip or the payload.
func (g *Gateway) IssueRoomHash(ctx context.Context, sid string, profile model.RemoteProfile, opts model.RoomOptions) Result {
	return g.PerformCall(ctx, sid, model.RightSoap, func(ctx context.Context, sess *model.Session) (Result, error) {
		payload, err := profile.Encode()
		if err != nil {
			return Result{}, err
		}
		hash, err := g.Hashes.Create(ctx, sess.ID, opts)
		if err != nil {
			// Policy rejection or room unavailable: opaque failure.
			log.Printf("gateway: hash recording failed: %v", err)
			return Unknown, nil
		}
		if opts.AllowSameURLMultipleTimes {
			sess.Permanent = true
		}
		sess.Payload = payload
		if err := g.Sessions.Update(ctx, sess); err != nil {
			return Result{}, err
		}
		return Success(hash), nil
	})
}

// RoomEntry is the payload returned by a successful hash redemption.
type RoomEntry struct {
	UID       string    `json:"uid"`     // client public id pre-registered in the room
	RoomID    uint64    `json:"room_id"`
	Moderator bool      `json:"moderator"`
	Token     string    `json:"token"` // signed room-entry token
	ExpiresAt time.Time `json:"expires_at"`
}

// RedeemRoomHash consumes a hash and hands the pre-authenticated external
// user into the bound room: it resolves the issuing session, registers a
// fresh client uid in the room and returns a signed room-entry token
// carrying the attached identity. Single-use hashes are consumed on first
// redemption; reuse-flagged ones stay valid. The hash itself is the
// credential, so this operation does not pass the rights gate.
func (g *Gateway) RedeemRoomHash(ctx context.Context, hash string) Result {
	h, err := g.Hashes.Redeem(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Error(msgInvalidHash)
		}
		log.Printf("gateway: hash redeem failed: %v", err)
		return Unknown
	}

	unlock := g.locks.Lock(h.SessionID)
	defer unlock()

	sess, err := g.Sessions.Get(ctx, h.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Error(msgInvalidHash)
		}
		log.Printf("gateway: session resolve failed: %v", err)
		return Unknown
	}
	profile, err := model.DecodeRemoteProfile(sess.Payload)
	if err != nil {
		log.Printf("gateway: session payload decode failed: %v", err)
		return Unknown
	}
	// Consumption counts as a touch: the sweep and this redemption agree on
	// the last-used timestamp before the session could be expired.
	if err := g.Sessions.Touch(ctx, sess.ID); err != nil {
		log.Printf("gateway: session touch failed: %v", err)
		return Unknown
	}

	uid, err := utils.NewOpaqueToken()
	if err != nil {
		log.Printf("gateway: uid mint failed: %v", err)
		return Unknown
	}
	if err := g.Clients.Join(ctx, uid, h.RoomID); err != nil {
		log.Printf("gateway: client join failed: %v", err)
		return Unknown
	}
	token, err := utils.NewRoomToken(g.RoomTokenSecret, &h, profile, g.RoomTokenTTLMin)
	if err != nil {
		log.Printf("gateway: room token sign failed: %v", err)
		return Unknown
	}

	g.publish(ctx, queue.RoomEvent{
		Type:       queue.EventClientEntered,
		ClientUID:  uid,
		RoomID:     h.RoomID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	return SuccessData(RoomEntry{
		UID:       uid,
		RoomID:    h.RoomID,
		Moderator: h.Moderator,
		Token:     token.Token,
		ExpiresAt: token.Exp,
	})
}
