package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/budget-planner/internal/ai"
	httptransport "github.com/spec-kit/budget-planner/internal/api/http"
	"github.com/spec-kit/budget-planner/internal/api/http/handlers"
	"github.com/spec-kit/budget-planner/internal/auth"
	"github.com/spec-kit/budget-planner/internal/config"
	"github.com/spec-kit/budget-planner/internal/events"
	"github.com/spec-kit/budget-planner/internal/observability"
	"github.com/spec-kit/budget-planner/internal/persistence"
	"github.com/spec-kit/budget-planner/internal/repository"
	"github.com/spec-kit/budget-planner/internal/service"
	"github.com/spec-kit/budget-planner/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	transactionRepo := repository.NewTransactionRepository(pool)
	budgetRepo := repository.NewBudgetRepository(pool)
	chatRepo := repository.NewChatRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
	})
	transactionService := service.NewTransactionService(service.TransactionDependencies{
		TransactionRepo: transactionRepo,
		BudgetRepo:      budgetRepo,
		Dispatcher:      dispatcher,
	})
	budgetService := service.NewBudgetService(service.BudgetDependencies{
		BudgetRepo:      budgetRepo,
		TransactionRepo: transactionRepo,
	})
	chatService := service.NewChatService(cfg.AI, service.ChatDependencies{
		ChatRepo:        chatRepo,
		TransactionRepo: transactionRepo,
		BudgetRepo:      budgetRepo,
		Completions:     ai.NewClient(cfg.AI),
		Cache:           redis.Client,
		Logger:          logger,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	gate := auth.NewGate(userRepo)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Info:           handlers.NewInfoHandler(gate),
		Auth:           handlers.NewAuthHandler(authService, gate),
		Transactions:   handlers.NewTransactionsHandler(transactionService),
		Budgets:        handlers.NewBudgetsHandler(budgetService),
		Chat:           handlers.NewChatHandler(chatService),
		AuthMiddleware: authMiddleware,
		Gate:           gate,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
