package container

import (
	"fmt"

	"github.com/bharatbiz/bizagent/internal/application/dispatcher"
	"github.com/bharatbiz/bizagent/internal/application/port"
	"github.com/bharatbiz/bizagent/internal/application/service"
	"github.com/bharatbiz/bizagent/internal/domain/billing"
	"github.com/bharatbiz/bizagent/internal/domain/catalog"
	"github.com/bharatbiz/bizagent/internal/infrastructure/external/openai"
	"github.com/bharatbiz/bizagent/internal/infrastructure/persistence/memory"
	"github.com/bharatbiz/bizagent/internal/infrastructure/persistence/repository"
	"github.com/bharatbiz/bizagent/internal/infrastructure/persistence/sqlite"
	"github.com/bharatbiz/bizagent/pkg/database"
	"github.com/bharatbiz/bizagent/pkg/utils"
	"go.uber.org/zap"
)

// DatabaseBundle holds database-related components. Both fields are nil for
// the memory driver.
type DatabaseBundle struct {
	SqlDB          *database.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the sqlite record store and applies the embedded
// migrations.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.Driver != DriverSQLite {
		return &DatabaseBundle{}, nil
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	applied, err := database.NewMigrator(db, logger).Run(database.Schema())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Migrations applied", zap.Int("count", applied))

	return &DatabaseBundle{
		SqlDB:          db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates the record stores. A nil transaction manager
// selects the in-memory implementations.
func ProvideRepositories(db *sqlite.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if db == nil {
		return &RepositoryBundle{
			Invoice:   memory.NewInvoiceRepository(),
			Customer:  memory.NewCustomerRepository(),
			Reminder:  memory.NewReminderRepository(),
			TxManager: memory.Transactions{},
		}, nil
	}

	return &RepositoryBundle{
		Invoice:   repository.NewInvoiceRepository(db, logger),
		Customer:  repository.NewCustomerRepository(db, logger),
		Reminder:  repository.NewReminderRepository(db, logger),
		EventLog:  repository.NewEventLogRepository(db, logger),
		TxManager: db,
	}, nil
}

// ProvideClassifier creates the OpenAI intent classifier.
func ProvideClassifier(cfg *OpenAIConfig, products openai.ProductLister, logger *zap.Logger) (port.IntentClassifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("openai config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	prompts, err := openai.LoadPrompts(cfg.PromptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}

	return openai.NewClassifier(openai.Config{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	}, prompts, products, logger), nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(utils.NewKVLogger(logger)),
	), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	Catalog    *catalog.Catalog
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := utils.NewKVLogger(deps.Logger)
	repos := deps.Repos

	ledger := service.NewCustomerLedger(repos.Customer, deps.Dispatcher, serviceLogger)

	return &ServiceBundle{
		Composer: billing.NewInvoiceComposer(billing.NewLineItemComputer(deps.Catalog, deps.Catalog.Taxes())),
		Ledger:   ledger,
		Reminders: service.NewReminderQueue(
			repos.Reminder,
			deps.Dispatcher,
			serviceLogger,
		),
		Payments: service.NewPaymentService(
			ledger,
			repos.Invoice,
			repos.TxManager,
			deps.Dispatcher,
			serviceLogger,
		),
		Queries: service.NewQueryService(
			repos.Invoice,
			repos.Customer,
			repos.Reminder,
			serviceLogger,
		),
	}, nil
}
