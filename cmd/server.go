package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/config"
	"github.com/Abraxas-365/credit-intake/pkg/logx"
	"github.com/Abraxas-365/credit-intake/pkg/respx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("Invalid configuration: %v", err)
	}

	// 2. Logger
	logCfg := logx.LoadFromEnv()
	if logCfg.Service == "" {
		logCfg.Service = "credit-intake"
	}
	logx.SetDefaultLogger(logx.NewLogger(logCfg))

	logx.Infof("🚀 Starting %s (%s)...", cfg.Server.AppName, cfg.Server.Env)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. Dependency container
	container := NewContainer(ctx, cfg)
	defer container.Cleanup()

	// 4. Fiber app
	app := fiber.New(fiber.Config{
		AppName:               cfg.Server.AppName,
		DisableStartupMessage: true,
		ErrorHandler:          respx.ErrorHandler,
		BodyLimit:             cfg.Server.BodyLimit,
		IdleTimeout:           120 * time.Second,
	})

	// 5. Global middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !cfg.Server.IsProduction(),
	}))

	app.Use(requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: uuid.NewString,
	}))
	app.Use(func(c *fiber.Ctx) error {
		id, _ := c.Locals("requestid").(string)
		c.SetUserContext(logx.ContextWithRequestID(c.UserContext(), id))
		return c.Next()
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:  "GET, POST, PATCH, DELETE, HEAD, OPTIONS",
		ExposeHeaders: "X-Request-ID, " + respx.ErrorCodeHeader,
	}))

	app.Use(helmet.New())

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	if limiter := container.GeneralLimiter(); limiter != nil {
		app.Use(limiter)
	}

	// 6. Health
	app.Get("/health", healthCheckHandler(container))

	// 7. Module routes
	container.RegisterRoutes(app)

	// 8. 404 handler
	app.Use(notFoundHandler)

	printRouteSummary()

	// 9. Background services and server
	jobsDone := container.StartBackgroundServices(ctx)
	startServer(app, cfg.Server.Port)

	stop()
	<-jobsDone
}

// ============================================================================
// Handler Functions
// ============================================================================

// healthCheckHandler reports database and storage reachability.
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":  "healthy",
			"version": getEnv("APP_VERSION", "1.0.0"),
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		if err := container.DB.PingContext(ctx); err != nil {
			health["db"] = "unhealthy"
			health["status"] = "degraded"
			logx.WithContext(ctx).WithError(err).Warn("Health check: database unreachable")
		} else {
			health["db"] = "healthy"
		}

		if c.QueryBool("check_storage", false) {
			if _, err := container.FileSystem.Exists(ctx, ".health-check"); err != nil {
				health["storage"] = "unhealthy"
				health["status"] = "degraded"
				logx.WithContext(ctx).WithError(err).Warn("Health check: storage unreachable")
			} else {
				health["storage"] = "healthy"
			}
		}

		if health["status"] == "degraded" {
			return respx.Send(c, fiber.StatusServiceUnavailable, "Service is degraded", health)
		}
		return respx.OK(c, "Service is healthy", health)
	}
}

// notFoundHandler handles 404 errors
func notFoundHandler(c *fiber.Ctx) error {
	c.Set(respx.ErrorCodeHeader, "HTTP_404")
	return respx.Fail(c, fiber.StatusNotFound, "Route not found")
}

// ============================================================================
// Utility Functions
// ============================================================================

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// printRouteSummary prints a summary of registered routes
func printRouteSummary() {
	logx.Info("📋 Route Summary:")
	logx.Info("   ├─ Auth: /auth/*")
	logx.Info("   ├─ Requester: /requester, /requester/documents/:kind, /requester/:id")
	logx.Info("   ├─ Credit requests: /request, /request/:id, /request/:id/status")
	logx.Info("   └─ Health: /health")
}

// startServer listens until SIGINT/SIGTERM, then shuts down gracefully.
func startServer(app *fiber.App, port string) {
	go func() {
		logx.Info(strings.Repeat("=", 61))
		logx.Infof("🚀 Server listening on port %s", port)
		logx.Infof("💚 Health Check: http://localhost:%s/health", port)
		logx.Info(strings.Repeat("=", 61))

		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	gracefulShutdown(app)
}

// gracefulShutdown handles graceful server shutdown
func gracefulShutdown(app *fiber.App) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	logx.Info("✅ Server exited successfully")
}
