package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/storage"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

type repositories struct {
	tickets  repository.TicketRepository
	comments repository.CommentRepository
	orgs     repository.OrganizationRepository
	users    repository.UserRepository
	history  repository.TicketHistoryRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetry, err := observability.NewTelemetry(ctx, cfg.Telemetry, cfg.App, logger)
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	repos := buildRepositories(pg)
	dispatcher := events.NewInMemoryDispatcher(logger)
	metrics := observability.NewMetrics()

	userService := service.NewUserService(service.UserDependencies{
		UserRepo:   repos.users,
		OrgRepo:    repos.orgs,
		Dispatcher: dispatcher,
		Logger:     logger,
		Pagination: cfg.Pagination,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  repos.tickets,
		UserRepo:    repos.users,
		OrgRepo:     repos.orgs,
		HistoryRepo: repos.history,
		UserSyncer:  userService,
		Dispatcher:  dispatcher,
		Logger:      logger,
		Pagination:  cfg.Pagination,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		TicketRepo:  repos.tickets,
		CommentRepo: repos.comments,
		Dispatcher:  dispatcher,
		Logger:      logger,
		Pagination:  cfg.Pagination,
	})
	orgService := service.NewOrganizationService(service.OrganizationDependencies{
		OrgRepo:    repos.orgs,
		Dispatcher: dispatcher,
		Logger:     logger,
		Pagination: cfg.Pagination,
	})

	var uploader storage.Uploader
	s3Uploader, err := storage.NewS3Uploader(ctx, cfg.Storage)
	if err != nil {
		logger.Warn("object storage unavailable; upload URLs disabled", zap.Error(err))
	} else {
		uploader = s3Uploader
	}
	uploadService := service.NewUploadService(uploader, cfg.Storage.UploadTTL(), logger, nil)

	subscribers := worker.Subscribers{
		Notifications: service.NewNotificationService(dispatcher, repos.tickets, logger, cfg.Notification),
	}
	if redis.Enabled() {
		subscribers.Relay = events.NewRedisRelay(redis.Client, cfg.Events.Channel)
	}
	worker.Start(dispatcher, subscribers, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	if !tokens.Verifying() {
		logger.Warn("AUTH_JWT_SECRET not set; bearer tokens are decoded without signature verification")
	}
	validator := dto.NewValidator()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		ServiceName:      cfg.App.Name,
		Tracing:          telemetry.Enabled(),
		Timeout:          cfg.App.RequestTimeout(),
		CORSAllowOrigins: cfg.App.CORSAllowOrigins,
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Dependency{
			"postgres": pg,
			"redis":    redis,
		}, metrics),
		Tickets:        handlers.NewTicketsHandler(ticketService, validator),
		Comments:       handlers.NewCommentsHandler(commentService),
		Organizations:  handlers.NewOrganizationsHandler(orgService, validator),
		Users:          handlers.NewUsersHandler(userService, validator),
		Uploads:        handlers.NewUploadsHandler(uploadService, validator),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown", zap.Error(err))
	}
}

func buildRepositories(pg *persistence.Postgres) repositories {
	if !pg.Enabled() {
		return repositories{
			tickets:  memory.NewTicketRepository(),
			comments: memory.NewCommentRepository(),
			orgs:     memory.NewOrganizationRepository(),
			users:    memory.NewUserRepository(),
			history:  memory.NewTicketHistoryRepository(),
		}
	}
	return repositories{
		tickets:  repository.NewTicketRepository(pg.Pool),
		comments: repository.NewCommentRepository(pg.Pool),
		orgs:     repository.NewOrganizationRepository(pg.Pool),
		users:    repository.NewUserRepository(pg.Pool),
		history:  repository.NewTicketHistoryRepository(pg.Pool),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
