package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"

	"switchdeck/internal/config"
	"switchdeck/internal/device"
	"switchdeck/internal/gateway"
	"switchdeck/internal/logging"
	"switchdeck/internal/reconciler"
	"switchdeck/internal/registry"
	"switchdeck/internal/session"
	"switchdeck/internal/users"
	"switchdeck/internal/web"
)

func main() {
	config.Load()
	logging.SetLevel(config.Get("LOG_LEVEL", "info"))
	log := logging.Logger

	host := config.Get("WEB_HOST", "0.0.0.0")
	port := config.Get("WEB_PORT", "8080")
	dbPath := config.Get("DB_PATH", "./switchdeck.db")
	secret := config.Get("JWT_SECRET", "")
	sessionTTL := config.GetDuration("SESSION_TTL", 24*time.Hour)
	reconcileInterval := config.GetDuration("RECONCILE_INTERVAL", 10*time.Minute)

	store, err := gateway.InitDB(dbPath)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	tokens, err := session.NewTokenManager(secret, sessionTTL)
	if err != nil {
		log.Fatalf("JWT_SECRET: %v", err)
	}

	reg := registry.New(store)
	if _, err := reg.List(context.Background()); err != nil {
		log.Warnf("initial switch load failed: %v", err)
	}

	server := &web.Server{
		Registry:  reg,
		Editor:    &device.Editor{Registry: reg},
		Guard:     session.NewGuard(store, tokens),
		Tokens:    tokens,
		Directory: users.NewDirectory(store),
	}

	// Background reconcile keeps the in-memory view converging on the
	// store even without user-triggered refreshes.
	go reconciler.Run(context.Background(), reg, reconcileInterval)

	engine := html.New("./internal/web/templates", ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
	})
	app.Static("/static", "./internal/web/static")

	server.SetupRoutes(app)

	log.Infof("Server running at http://%s:%s", host, port)
	log.Fatal(app.Listen(host + ":" + port))
}
