// Package repository implements the MySQL and Redis backed stores consumed
// by the gateway service. Sentinel errors defined here let the service
// layer distinguish failure scenarios without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a record does not exist, is soft-deleted, or
// (for sessions and hashes) has expired or been consumed.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint,
// such as reusing a login.
var ErrDuplicate = errors.New("duplicate")
