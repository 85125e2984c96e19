package model

import (
	"encoding/json"
	"time"
)

// Session is a server-side record binding an opaque id to an authenticated
// user. Non-permanent sessions expire a fixed interval after they were last
// touched; a session flipped to permanent (repeatable room-hash redemption)
// never expires on its own.
type Session struct {
	ID         string // sessions.id, hex of 32 random bytes
	UserID     uint64
	LocaleID   uint32
	Payload    string // serialized RemoteProfile, empty until a hash is issued
	Permanent  bool
	CreatedAt  time.Time
	LastUsedAt time.Time
}

// Expired reports whether the session is past its lifetime at the given
// instant. Permanent sessions never expire.
func (s *Session) Expired(ttl time.Duration, now time.Time) bool {
	if s.Permanent {
		return false
	}
	return now.Sub(s.LastUsedAt) > ttl
}

// RemoteProfile is the externally supplied identity attached to a session
// when a room hash is issued. It is serialized into the session payload and
// handed to the room side on redemption.
type RemoteProfile struct {
	Login        string `json:"login"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PictureURL   string `json:"picture_url,omitempty"`
	Email        string `json:"email"`
	ExternalID   string `json:"external_id"`
	ExternalType string `json:"external_type"`
}

// Encode serializes the profile for storage in the session payload.
func (p *RemoteProfile) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeRemoteProfile parses a session payload back into a profile.
func DecodeRemoteProfile(raw string) (*RemoteProfile, error) {
	var p RemoteProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, err
	}
	return &p, nil
}
