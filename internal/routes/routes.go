package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/bazaar-pay/bazaar_pay/internal/config"
	"github.com/bazaar-pay/bazaar_pay/internal/history"
	"github.com/bazaar-pay/bazaar_pay/internal/ledger"
	"github.com/bazaar-pay/bazaar_pay/internal/middleware"
	"github.com/bazaar-pay/bazaar_pay/internal/notification"
	"github.com/bazaar-pay/bazaar_pay/internal/owner"
	"github.com/bazaar-pay/bazaar_pay/internal/policy"
	"github.com/bazaar-pay/bazaar_pay/internal/transfer"
	"github.com/bazaar-pay/bazaar_pay/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. Without a
// database the whole stack runs on the in-memory ledger, which only dev
// mode permits.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	// Storage: Postgres when configured, otherwise one shared in-memory
	// store serving as both ledger engine and wallet repository.
	var (
		engine     ledger.Engine
		walletRepo wallet.Repository
	)
	if d.DB != nil {
		engine = ledger.NewPostgresStore(d.DB, d.Cfg.LockWait)
		walletRepo = wallet.NewPostgresRepository(d.DB)
	} else {
		mem := ledger.NewInMemory(d.Cfg.LockWait)
		engine = mem
		walletRepo = mem
	}

	var ownerRepo owner.Repository
	if d.DB != nil {
		ownerRepo = owner.NewPostgresRepository(d.DB)
	} else {
		ownerRepo = owner.NewMemoryRepository()
	}

	ownerSvc := owner.NewService(ownerRepo)
	walletSvc := wallet.NewService(walletRepo, ownerSvc)
	notifier := notification.NewLoggerNotifier(d.Logger)
	transferSvc := transfer.NewService(engine, walletSvc, policy.New(d.Cfg.Policy), notifier, d.Logger)
	historySvc := history.NewService(engine)

	ownerHandler := owner.NewHandler(ownerSvc)
	walletHandler := wallet.NewHandler(walletSvc)
	transferHandler := transfer.NewHandler(transferSvc)
	historyHandler := history.NewHandler(historySvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterCurrencyRoutes(api)
	RegisterOwnerRoutes(api, ownerHandler, walletHandler)
	RegisterWalletRoutes(api, walletHandler, historyHandler)

	// Money movement gets throttling plus HTTP-level response replay on top
	// of the engine's own idempotency keys.
	money := api.Group("",
		middleware.RateLimit(d.Cache, d.Cfg.RateLimitPerMin),
		middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger),
	)
	RegisterTransferRoutes(money, transferHandler)
	RegisterHistoryRoutes(api, historyHandler)

	return nil
}
