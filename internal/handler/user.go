package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/meetrix/room-gateway/internal/model"
	"github.com/meetrix/room-gateway/internal/service"
)

// callTimeout bounds every store round trip made on behalf of a request.
const callTimeout = 5 * time.Second

// UserHandler exposes the user service of the gateway. Domain outcomes are
// always an HTTP 200 with a Result envelope; only transport-level failures
// (malformed request) are rejected with a 4xx before the service runs.
type UserHandler struct {
	GW *service.Gateway
}

func NewUserHandler(gw *service.Gateway) *UserHandler {
	if gw == nil {
		panic("nil gateway passed to NewUserHandler")
	}
	return &UserHandler{GW: gw}
}

// ----- DTOs -----

type loginReq struct {
	User string `json:"user"` // login or email
	Pass string `json:"pass"`
}

type candidateReq struct {
	Login        string `json:"login"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	LocaleID     uint32 `json:"locale_id"`
	Timezone     string `json:"timezone"`
	Country      string `json:"country"`
	Town         string `json:"town"`
	Street       string `json:"street"`
	ExternalID   string `json:"external_id"`
	ExternalType string `json:"external_type"`
}

type createUserReq struct {
	User     candidateReq `json:"user"`
	Password string       `json:"password"`
	Confirm  bool         `json:"confirm"` // confirmation email; handled by the mailer collaborator
}

type issueHashReq struct {
	User    model.RemoteProfile `json:"user"`
	Options model.RoomOptions   `json:"options"`
}

func (r candidateReq) toModel() model.User {
	return model.User{
		Login:        strings.TrimSpace(r.Login),
		Email:        strings.TrimSpace(r.Email),
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		LocaleID:     r.LocaleID,
		Timezone:     r.Timezone,
		Address:      model.Address{Country: r.Country, Town: r.Town, Street: r.Street},
		ExternalID:   strings.TrimSpace(r.ExternalID),
		ExternalType: strings.TrimSpace(r.ExternalType),
	}
}

func callCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), callTimeout)
}

func sid(c echo.Context) string { return strings.TrimSpace(c.QueryParam("sid")) }

// Login verifies credentials and returns the new session id in the
// envelope message.
func (h *UserHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.User) == "" || req.Pass == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user/pass required"})
	}
	ctx, cancel := callCtx(c)
	defer cancel()
	return c.JSON(http.StatusOK, h.GW.Login(ctx, req.User, req.Pass))
}

// List returns all users in the system.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := callCtx(c)
	defer cancel()
	return c.JSON(http.StatusOK, h.GW.ListUsers(ctx, sid(c)))
}

// Create provisions a new account like through the frontend and activates
// it immediately when it is not externally federated.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.User.Login == "" || req.User.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "login/email required"})
	}
	ctx, cancel := callCtx(c)
	defer cancel()
	return c.JSON(http.StatusOK, h.GW.CreateUser(ctx, sid(c), req.User.toModel(), req.Password))
}

// Delete soft-deletes a user by id.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := callCtx(c)
	defer cancel()
	return c.JSON(http.StatusOK, h.GW.DeleteUser(ctx, sid(c), id))
}

// DeleteExternal soft-deletes a user by its external-identity pair.
func (h *UserHandler) DeleteExternal(c echo.Context) error {
	extType := strings.TrimSpace(c.Param("externaltype"))
	extID := strings.TrimSpace(c.Param("externalid"))
	if extType == "" || extID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid external identity"})
	}
	ctx, cancel := callCtx(c)
	defer cancel()
	return c.JSON(http.StatusOK, h.GW.DeleteUserByExternal(ctx, sid(c), extType, extID))
}

// IssueHash binds the caller's session to room options and an external
// profile, returning the room hash in the envelope message.
func (h *UserHandler) IssueHash(c echo.Context) error {
	var req issueHashReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Options.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id required"})
	}
	ctx, cancel := callCtx(c)
	defer cancel()
	return c.JSON(http.StatusOK, h.GW.IssueRoomHash(ctx, sid(c), req.User, req.Options))
}

// Kick removes a client from its room by public uid.
func (h *UserHandler) Kick(c echo.Context) error {
	uid := strings.TrimSpace(c.Param("uid"))
	if uid == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid uid"})
	}
	ctx, cancel := callCtx(c)
	defer cancel()
	return c.JSON(http.StatusOK, h.GW.Kick(ctx, sid(c), uid))
}

// Count returns the number of clients currently in the room.
func (h *UserHandler) Count(c echo.Context) error {
	roomID, err := strconv.ParseUint(c.Param("roomid"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	ctx, cancel := callCtx(c)
	defer cancel()
	return c.JSON(http.StatusOK, h.GW.CountInRoom(ctx, sid(c), roomID))
}

// Logout destroys the caller's session.
func (h *UserHandler) Logout(c echo.Context) error {
	ctx, cancel := callCtx(c)
	defer cancel()
	return c.JSON(http.StatusOK, h.GW.Logout(ctx, sid(c)))
}
