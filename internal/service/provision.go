package service

import (
	"context"
	"errors"
	"strings"

	"github.com/meetrix/room-gateway/internal/model"
	"github.com/meetrix/room-gateway/internal/repository"
	"github.com/meetrix/room-gateway/internal/utils"
)

// CreateUser provisions a new account through the gateway. Requires the
// service-caller right; the resolved session's user is stamped as the audit
// actor on the created record.
func (g *Gateway) CreateUser(ctx context.Context, sid string, candidate model.User, password string) Result {
	return g.PerformCall(ctx, sid, model.RightSoap, func(ctx context.Context, sess *model.Session) (Result, error) {
		u, err := g.register(ctx, candidate, password, sess.UserID)
		if err != nil {
			return Result{}, err
		}
		return SuccessData(u.DTO()), nil
	})
}

// register applies the provisioning invariants in order: external-identity
// de-duplication first, then default attribute fill-in, then the
// password-strength gate, then creation, default-group membership and
// capability assignment. The de-dup check deliberately runs before any
// validation.
func (g *Gateway) register(ctx context.Context, candidate model.User, password string, actorID uint64) (*model.User, error) {
	if candidate.IsExternal() {
		_, err := g.Users.GetByExternal(ctx, candidate.ExternalID, candidate.ExternalType)
		if err == nil {
			return nil, NewCallError(msgUserExists)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	if strings.TrimSpace(candidate.Timezone) == "" {
		candidate.Timezone = g.DefaultTimezone
	}
	if candidate.Address.Country == "" {
		candidate.Address.Country = g.DefaultCountry
	}
	if candidate.LocaleID == 0 {
		candidate.LocaleID = g.DefaultLocaleID
	}

	if msgs := g.Policy.Validate(password, &candidate); len(msgs) > 0 {
		return nil, NewCallError(strings.Join(msgs, "\n"))
	}

	hash, err := utils.HashPassword(password, g.BcryptCost)
	if err != nil {
		return nil, NewCallError(msgCreateFailed)
	}
	candidate.PasswordHash = hash
	candidate.Rights = model.NewRightSet()
	candidate.Type = model.TypeLocal
	candidate.InsertedBy = actorID
	candidate.UpdatedBy = actorID
	if err := g.Users.Create(ctx, &candidate); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewCallError(msgLoginInUse)
		}
		return nil, NewCallError(msgCreateFailed)
	}

	// Every provisioned account joins the system default group.
	if err := g.Groups.AssignDefault(ctx, candidate.ID, actorID); err != nil {
		return nil, NewCallError(msgCreateFailed)
	}

	// Capability assignment: room access always; local self-service accounts
	// are activated immediately, externally federated ones are provisioned
	// but not directly loginable.
	candidate.Rights.Add(model.RightRoom)
	if candidate.IsExternal() {
		candidate.Type = model.TypeExternal
	} else {
		candidate.Rights.Add(model.RightLogin, model.RightDashboard)
	}
	if err := g.Users.Update(ctx, &candidate, actorID); err != nil {
		return nil, NewCallError(msgCreateFailed)
	}
	return &candidate, nil
}
