package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ddt-backend/internal/archive"
	"ddt-backend/internal/audit"
	"ddt-backend/internal/auth"
	"ddt-backend/internal/config"
	"ddt-backend/internal/database"
	"ddt-backend/internal/ddtpdf"
	"ddt-backend/internal/logging"
	"ddt-backend/internal/models"
	"ddt-backend/internal/numbering"
	"ddt-backend/internal/registry"
	"ddt-backend/internal/transport"
)

func main() {
	cfg := config.Load()
	logger := logging.Must(cfg)
	defer logger.Sync()

	database.Init(cfg, logger.Named("database"))

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.Warn("unknown TIMEZONE, using local time", zap.String("timezone", cfg.TimeZone), zap.Error(err))
		loc = time.Local
	}

	store := numbering.NewGormStore(database.DB)
	engine := numbering.NewEngine(store, logger.Named("numbering"), loc)
	records := transport.NewService(database.DB, engine, logger.Named("transport"), cfg.NumberingMaxRetries)
	renderer := ddtpdf.NewRenderer(ddtpdf.Options{
		DefaultLogoPath: cfg.DefaultLogoPath,
		Logger:          logger.Named("pdf"),
	})

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	archiver, err := archive.New(startCtx, cfg.Archive, logger.Named("archive"))
	cancel()
	if err != nil {
		logger.Fatal("archive configuration", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *fiber.Error
			if errors.As(err, &e) {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			logging.FromCtx(c).Error("unexpected error", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Errore interno del server",
			})
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logging.Middleware(logger))

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(corsOrigins, ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		ExposeHeaders: "Content-Disposition",
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		if err := database.Ping(database.DB); err != nil {
			logging.FromCtx(c).Error("health check", zap.Error(err))
			return fiber.NewError(fiber.StatusServiceUnavailable, "Database non raggiungibile")
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler())
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	adminOnly := auth.RequireRole(models.RoleAdmin)

	protected.Post("/admin/users", adminOnly, auth.CreateUserHandler())
	protected.Get("/audit-logs", adminOnly, audit.ListAuditLogsHandler())

	// Numbering
	protected.Get("/numbering/next", numbering.NextNumberHandler(engine))
	protected.Get("/numbering/validate", numbering.ValidateNumberHandler(engine))
	protected.Get("/numbering/formats", numbering.ListFormatsHandler(store))
	protected.Post("/numbering/formats", adminOnly, numbering.CreateFormatHandler(store))
	protected.Put("/numbering/formats/:id", adminOnly, numbering.UpdateFormatHandler(store))
	protected.Post("/numbering/formats/:id/activate", adminOnly, numbering.ActivateFormatHandler(store))

	// Master data, writable by every back-office role
	registry.Register(protected, auth.RequireRole(models.RoleAdmin, models.RoleOperator))

	// Transport documents
	transport.Register(protected, records, transport.PDFOptions{
		Renderer:  renderer,
		Archive:   archiver,
		OutputDir: cfg.PDFOutputDir,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	logger.Info("server starting", zap.String("port", cfg.HTTPPort))
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.Fatal("listen", zap.Error(err))
	}
}
