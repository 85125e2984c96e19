package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ClientRegistry tracks which clients are currently connected to which room.
// The room runtime registers clients on entry; the gateway only reads the
// registry (occupancy counts) and removes entries (kick).
//
// Keys: room:<id>:clients is a SET of client public ids, client:<uid> maps a
// client back to its room. A nil Redis client degrades to an empty registry.
type ClientRegistry struct{ RDB *redis.Client }

func NewClientRegistry(rdb *redis.Client) *ClientRegistry {
	return &ClientRegistry{RDB: rdb}
}

func roomKey(roomID uint64) string { return fmt.Sprintf("room:%d:clients", roomID) }
func clientKey(uid string) string  { return "client:" + uid }

// Join registers a client as present in a room.
func (r *ClientRegistry) Join(ctx context.Context, uid string, roomID uint64) error {
	if r.RDB == nil {
		return nil
	}
	pipe := r.RDB.TxPipeline()
	pipe.SAdd(ctx, roomKey(roomID), uid)
	pipe.Set(ctx, clientKey(uid), roomID, 0)
	_, err := pipe.Exec(ctx)
	return err
}

// Kick removes a client from its room. Returns false when the client is not
// currently registered anywhere.
func (r *ClientRegistry) Kick(ctx context.Context, uid string) (bool, error) {
	if r.RDB == nil {
		return false, nil
	}
	roomID, err := r.RDB.Get(ctx, clientKey(uid)).Uint64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	pipe := r.RDB.TxPipeline()
	removed := pipe.SRem(ctx, roomKey(roomID), uid)
	pipe.Del(ctx, clientKey(uid))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return removed.Val() > 0, nil
}

// CountByRoom returns the number of clients currently in the room.
func (r *ClientRegistry) CountByRoom(ctx context.Context, roomID uint64) (int64, error) {
	if r.RDB == nil {
		return 0, nil
	}
	return r.RDB.SCard(ctx, roomKey(roomID)).Result()
}

// ListByRoom returns the client public ids currently in the room.
func (r *ClientRegistry) ListByRoom(ctx context.Context, roomID uint64) ([]string, error) {
	if r.RDB == nil {
		return nil, nil
	}
	return r.RDB.SMembers(ctx, roomKey(roomID)).Result()
}
