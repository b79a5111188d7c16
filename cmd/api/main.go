package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go-rbac-admin/internal/cache"
	"go-rbac-admin/internal/handler"
	"go-rbac-admin/internal/repository"
	"go-rbac-admin/internal/service"
	"go-rbac-admin/internal/ws"
	"go-rbac-admin/pkg/config"
	"go-rbac-admin/pkg/database"
	"go-rbac-admin/pkg/jwt"
	"go-rbac-admin/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	appLogger := logger.New(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(appLogger)

	deletePolicy, err := service.ParseRoleDeletePolicy(cfg.RoleDeletePolicy)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()

	// 2. Setup Database
	db := database.ConnectDB(cfg.DSN(), cfg.IsProduction())
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	// 3. Seed the admin role and default permissions
	if err := database.Seed(ctx, db, cfg.AdminEmail); err != nil {
		appLogger.Warn("seeding failed", slog.Any("error", err))
	}

	// 4. Policy change hub
	wsHub := ws.NewHub(appLogger)
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	permissionRepo := repository.NewPermissionRepo(db)
	postRepo := repository.NewPostRepo(db)

	var directory repository.Directory = repository.NewDirectory(userRepo, roleRepo, permissionRepo)
	policyOpts := service.PolicyOptions{
		DeletePolicy: deletePolicy,
		Hub:          wsHub,
		Logger:       appLogger,
	}
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatalf("Redis unavailable: %v", err)
		}
		defer client.Close()
		cached := cache.NewRolePermissionCache(directory, client, cfg.CacheTTL, appLogger)
		directory = cached
		policyOpts.Cache = cached
	}

	authorizer := service.NewAuthorizer(directory, appLogger)
	policyService := service.NewPolicyService(db, userRepo, roleRepo, permissionRepo, policyOpts)
	postService := service.NewPostService(postRepo, authorizer)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:               "RBAC Admin v1.0",
		DisableStartupMessage: cfg.IsProduction(),
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// 7. Routes
	handler.SetupRoutes(app, handler.Dependencies{
		Signer:         jwt.NewSigner(cfg.JWTSecret, cfg.TokenTTL),
		UserRepo:       userRepo,
		Directory:      directory,
		Authorizer:     authorizer,
		PolicyService:  policyService,
		PostService:    postService,
		Hub:            wsHub,
		AdminRateLimit: cfg.AdminRateLimit,
	})

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	wsHub.Stop()

	log.Println("Server exited")
}
