package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/meetrix/room-gateway/internal/service"
)

// RoomHandler exposes room entry for holders of an issued hash. The hash is
// the credential; no session id is required here.
type RoomHandler struct {
	GW *service.Gateway
}

func NewRoomHandler(gw *service.Gateway) *RoomHandler {
	if gw == nil {
		panic("nil gateway passed to NewRoomHandler")
	}
	return &RoomHandler{GW: gw}
}

type enterReq struct {
	Hash string `json:"hash"`
}

// Enter redeems a room hash and returns the signed room-entry token plus
// the pre-registered client uid.
func (h *RoomHandler) Enter(c echo.Context) error {
	var req enterReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Hash) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hash required"})
	}
	ctx, cancel := callCtx(c)
	defer cancel()
	return c.JSON(http.StatusOK, h.GW.RedeemRoomHash(ctx, strings.TrimSpace(req.Hash)))
}
