// Package queue defines the room events exchanged over the message broker
// and the background consumer that audits them.
package queue

// RoomEventsQueue is the durable queue room events are published to.
const RoomEventsQueue = "room.events"

// Event types.
const (
	EventClientEntered = "client.entered"
	EventClientKicked  = "client.kicked"
)

// RoomEvent is published when a client enters a room through a redeemed
// hash or is kicked by a service caller. It carries enough for downstream
// consumers to audit or notify without querying the primary database.
type RoomEvent struct {
	Type       string `json:"type"`
	ClientUID  string `json:"client_uid"`
	RoomID     uint64 `json:"room_id,omitempty"`
	ActorID    uint64 `json:"actor_id,omitempty"` // user who triggered a kick
	OccurredAt string `json:"occurred_at"`
}
