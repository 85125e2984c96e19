package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/meetrix/room-gateway/internal/config"
	"github.com/meetrix/room-gateway/internal/database"
	"github.com/meetrix/room-gateway/internal/handler"
	"github.com/meetrix/room-gateway/internal/queue"
	"github.com/meetrix/room-gateway/internal/repository"
	"github.com/meetrix/room-gateway/internal/router"
	"github.com/meetrix/room-gateway/internal/service"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; occupancy, rate limiting and caching degraded")
	}

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db, cfg.SessionTTL)
	hashes := repository.NewRoomHashRepo(db)
	clients := repository.NewClientRegistry(rdb)
	groups := repository.NewGroupRepo(db)

	gw := service.NewGateway(users, sessions, hashes, clients, groups,
		service.NewStrongPasswordPolicy(), queue.NewPublisher())
	gw.BcryptCost = cfg.BcryptCost
	gw.DefaultTimezone = cfg.DefaultTimezone
	gw.DefaultCountry = cfg.DefaultCountry
	gw.DefaultLocaleID = cfg.DefaultLocaleID
	gw.RoomTokenSecret = cfg.RoomTokenSecret
	gw.RoomTokenTTLMin = cfg.RoomTokenTTLMin

	// Kick/entry audit trail; runs its own reconnect loop.
	go func() {
		if err := queue.StartRoomEventsConsumer(); err != nil {
			log.Printf("room-consumer stopped: %v", err)
		}
	}()

	// Expiry sweep: low-priority background task, independent of request
	// handling. Permanent sessions are never touched.
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if n, err := sessions.SweepExpired(ctx); err != nil {
				log.Printf("session sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("session sweep removed %d expired sessions", n)
			}
			if _, err := hashes.DeleteOlderThan(ctx, time.Now().UTC().Add(-cfg.SessionTTL)); err != nil {
				log.Printf("hash sweep failed: %v", err)
			}
			cancel()
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterUserService(e, handler.NewUserHandler(gw), handler.NewRoomHandler(gw), rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
