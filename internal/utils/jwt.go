package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meetrix/room-gateway/internal/model"
)

// RoomToken is a signed JWT handed out when a room hash is redeemed. The
// room runtime verifies it instead of calling back into the gateway.
type RoomToken struct {
	Token string    // serialized JWT
	Exp   time.Time // UTC expiration time
}

// NewRoomToken signs an HS256 JWT carrying the room-entry parameters and
// the external identity attached to the redeemed session.
func NewRoomToken(secret string, hash *model.RoomHash, profile *model.RemoteProfile, ttlMin int) (RoomToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":       profile.Login,
		"room_id":   hash.RoomID,
		"moderator": hash.Moderator,
		"av_test":   hash.AVTest,
		"recording": hash.AllowRecording,
		"ext_id":    profile.ExternalID,
		"ext_type":  profile.ExternalType,
		"exp":       exp.Unix(),
		"iat":       now.Unix(),
	}
	if hash.RecordingID != nil {
		claims["recording_id"] = *hash.RecordingID
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return RoomToken{}, err
	}
	return RoomToken{Token: signed, Exp: exp}, nil
}

// ErrInvalidRoomToken is returned when a presented room token fails
// signature or claim validation.
var ErrInvalidRoomToken = errors.New("invalid room token")

// ParseRoomToken verifies a room-entry JWT and returns its claims.
func ParseRoomToken(secret, raw string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidRoomToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidRoomToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidRoomToken
	}
	return claims, nil
}
