package service

import (
	"strings"
	"unicode"

	"github.com/meetrix/room-gateway/internal/model"
)

// StrongPasswordPolicy is the default password-strength gate applied when
// accounts are provisioned through the gateway. Each violated rule yields
// its own message; provisioning fails with the full list, one per line.
type StrongPasswordPolicy struct {
	MinLength int
}

// NewStrongPasswordPolicy returns the policy with the default minimum length.
func NewStrongPasswordPolicy() *StrongPasswordPolicy {
	return &StrongPasswordPolicy{MinLength: 8}
}

// Validate checks the candidate secret against all rules and returns one
// message per violation. The candidate's profile provides context: the
// secret must not contain the login or the email local part.
func (p *StrongPasswordPolicy) Validate(password string, candidate *model.User) []string {
	var msgs []string
	if len(password) < p.MinLength {
		msgs = append(msgs, "password must be at least 8 characters long")
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if !upper {
		msgs = append(msgs, "password must contain an upper case character")
	}
	if !lower {
		msgs = append(msgs, "password must contain a lower case character")
	}
	if !digit {
		msgs = append(msgs, "password must contain a digit")
	}
	if !symbol {
		msgs = append(msgs, "password must contain a special character")
	}
	lowered := strings.ToLower(password)
	if login := strings.ToLower(strings.TrimSpace(candidate.Login)); login != "" && strings.Contains(lowered, login) {
		msgs = append(msgs, "password must not contain the login")
	}
	if email := strings.ToLower(strings.TrimSpace(candidate.Email)); email != "" {
		if local, _, found := strings.Cut(email, "@"); found && local != "" && strings.Contains(lowered, local) {
			msgs = append(msgs, "password must not contain parts of the email")
		}
	}
	return msgs
}
