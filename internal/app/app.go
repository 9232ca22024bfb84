package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nikhilm/hourglass-goal-service/internal/config"
	"github.com/nikhilm/hourglass-goal-service/internal/db"
	"github.com/nikhilm/hourglass-goal-service/internal/event"
	"github.com/nikhilm/hourglass-goal-service/internal/repository"
	"github.com/nikhilm/hourglass-goal-service/internal/service"
)

type App struct {
	Cfg         *config.Config
	DB          *sqlx.DB
	GoalService *service.GoalService

	// Dispatcher is nil when no webhook consumer is configured; events
	// then stay parked in the outbox.
	Dispatcher *event.Dispatcher
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	goalRepository := repository.NewGoalRepository(database)
	outboxRepository := repository.NewOutboxRepository(database)

	// Events
	publisher := event.NewOutboxPublisher(outboxRepository)

	var dispatcher *event.Dispatcher
	if cfg.EventWebhookURL != "" {
		dispatcher, err = event.NewDispatcher(
			outboxRepository,
			cfg.EventWebhookURL,
			cfg.EventWebhookSecret,
			cfg.EventDispatchInterval,
			cfg.EventDispatchBatch,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize event dispatcher: %v", err)
		}
	}

	// Services
	goalService := service.NewGoalService(goalRepository, publisher, cfg.PageSize)

	return &App{
		Cfg:         cfg,
		DB:          database,
		GoalService: goalService,
		Dispatcher:  dispatcher,
	}, nil
}

func (a *App) Close() error {
	return db.Close(a.DB)
}
