package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-kasir-ws/internal/cache"
	"go-kasir-ws/internal/events"
	"go-kasir-ws/internal/handler"
	"go-kasir-ws/internal/metrics"
	"go-kasir-ws/internal/middleware"
	"go-kasir-ws/internal/monitor"
	"go-kasir-ws/internal/service"
	"go-kasir-ws/internal/ws"
	"go-kasir-ws/pkg/config"
	"go-kasir-ws/pkg/database"
	"go-kasir-ws/pkg/jwt"
	"go-kasir-ws/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// 1. Load Env
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		boot := logger.New(logger.Config{})
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Setup Store
	store, closeStore, err := database.OpenStore(cfg.DB, logger.WithComponent(log, "database"))
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer closeStore()

	// 3. Seed default actors and products
	if cfg.App.SeedDefaults {
		if err := database.SeedDefaults(ctx, store, logger.WithComponent(log, "seed")); err != nil {
			log.Warn().Err(err).Msg("seed defaults")
		}
	}

	// 4. Setup WebSocket Hub and event fanout
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	wsHub := ws.NewHub(ws.DefaultPolicy(), logger.WithComponent(log, "ws"), ws.WithActorCheck(handler.ActorCheck(store.Actors)))
	go wsHub.Run(hubCtx)

	publisher := events.Fanout{wsHub}
	var relay *events.KafkaRelay
	if len(cfg.Kafka.Brokers) > 0 {
		relay = events.NewKafkaRelay(cfg.Kafka.Brokers, cfg.Kafka.Topic, 256, logger.WithComponent(log, "kafka"))
		relay.Start(hubCtx)
		publisher = append(publisher, relay)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka relay enabled")
	}

	var idem cache.IdempotencyStore = cache.Noop{}
	if cfg.Redis.Addr != "" {
		rdb := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, idempotency falls back to the ledger")
		}
		idem = cache.NewRedisIdempotency(rdb)
	}

	// 5. Dependency Injection (Wiring Layers)
	issuer := jwt.NewIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)

	checkoutService := service.NewCheckoutService(store, idem, publisher, logger.WithComponent(log, "checkout"))
	invService := service.NewInventoryService(store, publisher, logger.WithComponent(log, "inventory"))
	alertService := service.NewAlertService(store, publisher, logger.WithComponent(log, "alerts"))
	analyticsService := service.NewAnalyticsService(store)
	authService := service.NewAuthService(store.Actors, issuer, logger.WithComponent(log, "auth"))

	routes := &handler.Routes{
		Issuer:       issuer,
		Actors:       store.Actors,
		Auth:         handler.NewAuthHandler(authService),
		Inventory:    handler.NewInventoryHandler(invService),
		Transactions: handler.NewTransactionHandler(checkoutService, analyticsService, store.Transactions),
		Manager:      handler.NewManagerHandler(invService, analyticsService),
		WS:           handler.NewWSHandler(wsHub, issuer, store.Actors),
	}

	// 6. Stock Monitor
	mon := monitor.New(alertService, cfg.Monitor.Interval, logger.WithComponent(log, "monitor"))
	mon.Start(ctx)

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger(logger.WithComponent(log, "http")))
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "time": time.Now().In(service.JakartaLoc).Format(time.RFC3339)})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	routes.Mount(app)

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	mon.Stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	stopHub()
	if relay != nil {
		relay.WaitClosed()
	}

	log.Info().Msg("Server exited")
}

func errorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= 500 {
			log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}
