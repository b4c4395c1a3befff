package main // Entry point package

import (
	"context" // Context for startup-scoped DB calls
	"log"     // Logging library
	"os"      // Environment inspection for optional subsystems
	"time"    // Timeouts for startup work

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/eventpass/invite-registry/internal/config"   // Internal config loader
	"github.com/eventpass/invite-registry/internal/database" // MySQL pool + schema migration
	"github.com/eventpass/invite-registry/internal/handler"  // HTTP handlers
	"github.com/eventpass/invite-registry/internal/pass"     // PDF pass rendering
	"github.com/eventpass/invite-registry/internal/queue"    // invite.redeemed consumer
	"github.com/eventpass/invite-registry/internal/registry" // Invite lifecycle core
	"github.com/eventpass/invite-registry/internal/repository"
	"github.com/eventpass/invite-registry/internal/router" // Route registration
)

func main() {
	// Load a local .env when present.  In containers the variables come from
	// the runtime environment and the file is simply absent.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config, fatals on missing vars

	// Open the MySQL pool and apply the idempotent schema migration before
	// accepting any traffic.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database open: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	// Redis backs the public rate limiter and the session denylist.  A nil
	// client degrades both to pass-through, so a missing REDIS_ADDR only
	// costs the protections, never availability.
	rdb := config.NewRedisClient()

	events := repository.NewEventRepo(db)
	invites := repository.NewInviteRepo(db)
	reg := registry.New(events, invites)

	// Resolve the configured event once at startup.  The active event id is
	// immutable for the process lifetime; before setup runs it stays zero.
	active := &registry.ActiveEvent{}
	if ev, err := events.First(ctx); err == nil {
		active.Set(ev.ID)
		log.Printf("serving event %q (id=%d)", ev.Title, ev.ID)
	} else if err != repository.ErrNotFound {
		log.Fatalf("resolve active event: %v", err)
	} else {
		log.Printf("no event configured yet, waiting for setup")
	}

	renderer := pass.NewRenderer(cfg.PublicBaseURL)

	setupH := handler.NewSetupHandler(cfg, events, active)
	authH := handler.NewAdminAuthHandler(cfg, events, rdb)
	adminH := handler.NewAdminInviteHandler(reg, events, active, renderer)
	publicH := handler.NewPublicInviteHandler(reg, events, active, renderer)

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterSetup(e, setupH)
	router.RegisterPublic(e, publicH, config.LoadRateLimitConfig(), rdb)
	router.RegisterAdmin(e, authH, adminH, cfg.JWTSecret, rdb)

	// The redemption log consumer is optional: it runs only when a broker
	// URL is configured, so local development works without RabbitMQ.
	if os.Getenv("RABBITMQ_URL") != "" || os.Getenv("AMQP_URL") != "" {
		go func() {
			if err := queue.StartInviteConsumer(); err != nil {
				log.Printf("invite consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
