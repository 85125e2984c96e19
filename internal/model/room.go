package model

import "time"

// RoomOptions are the room-entry parameters bound to a hash at issuance.
type RoomOptions struct {
	RoomID                    uint64  `json:"room_id"`
	Moderator                 bool    `json:"moderator"`
	ShowAudioVideoTest        bool    `json:"show_audio_video_test"`
	AllowSameURLMultipleTimes bool    `json:"allow_same_url_multiple_times"`
	RecordingID               *uint64 `json:"recording_id,omitempty"`
	AllowRecording            bool    `json:"allow_recording"`
}

// RoomHash binds an issued hash to its session and room options. A hash is
// single-use unless Reuse was requested at issuance: redemption stamps
// UsedAt and further redemptions of a non-reuse hash fail.
type RoomHash struct {
	Hash           string
	SessionID      string
	RoomID         uint64
	Moderator      bool
	AVTest         bool
	Reuse          bool
	RecordingID    *uint64
	AllowRecording bool
	UsedAt         *time.Time
	CreatedAt      time.Time
}
