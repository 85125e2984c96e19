package model

import (
	"sort"
	"strings"
	"time"
)

// Right is a named capability a user holds. Rights are checked, never
// inferred: every privileged gateway operation names exactly one required
// right and the dispatcher compares it against the session owner's set.
type Right string

const (
	// RightSoap marks service callers (remote gateway access).
	RightSoap Right = "soap"
	// RightAdmin marks administrative accounts.
	RightAdmin Right = "admin"
	// RightRoom allows entering conference rooms.
	RightRoom Right = "room"
	// RightLogin allows direct login through the frontend.
	RightLogin Right = "login"
	// RightDashboard allows access to the dashboard.
	RightDashboard Right = "dashboard"
)

// RightSet is an unordered collection of rights. Construct via NewRightSet
// or ParseRights.
type RightSet map[Right]struct{}

// NewRightSet builds a set from the given rights.
func NewRightSet(rights ...Right) RightSet {
	s := make(RightSet, len(rights))
	s.Add(rights...)
	return s
}

// Has reports whether r is in the set.
func (s RightSet) Has(r Right) bool {
	_, ok := s[r]
	return ok
}

// Add inserts the given rights into the set.
func (s RightSet) Add(rights ...Right) {
	for _, r := range rights {
		s[r] = struct{}{}
	}
}

// String renders the set as a sorted comma-joined list, the form stored in
// the users.rights column.
func (s RightSet) String() string {
	names := make([]string, 0, len(s))
	for r := range s {
		names = append(names, string(r))
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// ParseRights parses a comma-joined rights column value. Unknown names are
// kept as-is; the enumeration is owned by the user store.
func ParseRights(raw string) RightSet {
	s := make(RightSet)
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(strings.ToLower(p))
		if p != "" {
			s[Right(p)] = struct{}{}
		}
	}
	return s
}

// Account types stored in users.type.
const (
	TypeLocal    = "local"
	TypeExternal = "external"
)

// Address is the postal address block of a user record.
type Address struct {
	Country string // users.address_country
	Town    string // users.address_town
	Street  string // users.address_street
}

// User mirrors the `users` table. Accounts are soft-deleted: Deleted is
// flipped and the audit fields stamped, the row is never removed.
type User struct {
	ID           uint64
	Login        string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	LocaleID     uint32
	Timezone     string
	Address      Address
	ExternalID   string // empty for locally-managed accounts
	ExternalType string // empty for locally-managed accounts
	Type         string // TypeLocal or TypeExternal
	Rights       RightSet
	Deleted      bool
	InsertedBy   uint64
	UpdatedBy    uint64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsExternal reports whether the account carries an external-identity pair.
func (u *User) IsExternal() bool {
	return u.ExternalID != "" && u.ExternalType != ""
}

// UserDTO is the JSON projection of a user returned by the gateway. The
// password hash and audit actor ids never leave the service.
type UserDTO struct {
	ID           uint64 `json:"id"`
	Login        string `json:"login"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	LocaleID     uint32 `json:"locale_id"`
	Timezone     string `json:"timezone,omitempty"`
	Country      string `json:"country,omitempty"`
	ExternalID   string `json:"external_id,omitempty"`
	ExternalType string `json:"external_type,omitempty"`
	Type         string `json:"type"`
	Rights       string `json:"rights"`
}

// DTO converts a user record into its external projection.
func (u *User) DTO() UserDTO {
	return UserDTO{
		ID:           u.ID,
		Login:        u.Login,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		LocaleID:     u.LocaleID,
		Timezone:     u.Timezone,
		Country:      u.Address.Country,
		ExternalID:   u.ExternalID,
		ExternalType: u.ExternalType,
		Type:         u.Type,
		Rights:       u.Rights.String(),
	}
}
