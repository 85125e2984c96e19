package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meetrix/room-gateway/internal/model"
)

func TestStrongPasswordPolicy(t *testing.T) {
	policy := NewStrongPasswordPolicy()
	candidate := &model.User{Login: "jdoe", Email: "john.doe@example.com"}

	tests := []struct {
		name     string
		password string
		want     []string
	}{
		{
			name:     "strong password passes",
			password: "Tr0ub4dor&3x",
			want:     nil,
		},
		{
			name:     "every rule violated at once",
			password: "aaaa",
			want: []string{
				"password must be at least 8 characters long",
				"password must contain an upper case character",
				"password must contain a digit",
				"password must contain a special character",
			},
		},
		{
			name:     "missing upper case only",
			password: "tr0ub4dor&3",
			want:     []string{"password must contain an upper case character"},
		},
		{
			name:     "missing lower case only",
			password: "TR0UB4DOR&3",
			want:     []string{"password must contain a lower case character"},
		},
		{
			name:     "missing digit only",
			password: "Troubador&!",
			want:     []string{"password must contain a digit"},
		},
		{
			name:     "missing special character only",
			password: "Tr0ub4dor3x",
			want:     []string{"password must contain a special character"},
		},
		{
			name:     "contains the login",
			password: "Xy1!JdOe$$$",
			want:     []string{"password must not contain the login"},
		},
		{
			name:     "contains the email local part",
			password: "John.Doe$123",
			want:     []string{"password must not contain parts of the email"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Validate(tt.password, candidate))
		})
	}
}

func TestStrongPasswordPolicyEmptyProfile(t *testing.T) {
	policy := NewStrongPasswordPolicy()
	// Empty login and email must not trip the containment rules.
	msgs := policy.Validate("Tr0ub4dor&3x", &model.User{})
	assert.Empty(t, msgs)
}
