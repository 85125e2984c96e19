// Package router defines how HTTP routes are registered for the gateway.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/meetrix/room-gateway/internal/config"
	"github.com/meetrix/room-gateway/internal/handler"
	"github.com/meetrix/room-gateway/internal/middleware"
)

// RegisterRoutes registers the health check on the provided Echo instance.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterUserService registers the user service endpoints. All of them
// answer a Result envelope; the rights gate inside the service layer does
// the authorization, so no auth middleware runs here beyond rate limiting.
func RegisterUserService(e *echo.Echo, u *handler.UserHandler, r *handler.RoomHandler, rdb *redis.Client) {
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	g := e.Group("/v1/user", limiter)
	g.POST("/login", u.Login)
	g.GET("", u.List)
	g.POST("", u.Create)
	g.DELETE("/:id", u.Delete)
	g.DELETE("/:externaltype/:externalid", u.DeleteExternal)
	g.POST("/hash", u.IssueHash)
	g.POST("/kick/:uid", u.Kick)
	g.POST("/logout", u.Logout)

	// Occupancy tolerates a few seconds of staleness; cache it.
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	g.GET("/count/:roomid", u.Count, cache)

	e.POST("/v1/room/enter", r.Enter, limiter)
}
