package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bharatbiz/bizagent/internal/application/dispatcher"
	"github.com/bharatbiz/bizagent/internal/application/orchestrator"
	"github.com/bharatbiz/bizagent/internal/application/port"
	"github.com/bharatbiz/bizagent/internal/application/service"
	"github.com/bharatbiz/bizagent/internal/domain/billing"
	"github.com/bharatbiz/bizagent/internal/domain/catalog"
	"github.com/bharatbiz/bizagent/internal/infrastructure/export"
	"github.com/bharatbiz/bizagent/internal/infrastructure/speech"
	"github.com/bharatbiz/bizagent/pkg/database"
	"github.com/bharatbiz/bizagent/pkg/utils"
	"go.uber.org/zap"
)

// Container manages all application dependencies and lifecycle, with
// ordered initialization and reverse-order teardown.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	sqlDB        *database.DB
	repositories *RepositoryBundle

	// Infrastructure - External
	classifier port.IntentClassifier
	speaker    port.Speaker
	exporter   *export.InvoiceExporter

	// Application
	catalog      *catalog.Catalog
	dispatcher   dispatcher.Dispatcher
	services     *ServiceBundle
	orchestrator *orchestrator.Orchestrator

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups the record stores.
type RepositoryBundle struct {
	Invoice  port.InvoiceRepository
	Customer port.CustomerRepository
	Reminder port.ReminderRepository

	// EventLog is nil for the memory driver
	EventLog port.EventLog

	TxManager port.TransactionManager
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Composer  *billing.InvoiceComposer
	Ledger    service.CustomerLedger
	Reminders service.ReminderQueue
	Payments  service.PaymentService
	Queries   service.QueryService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// Option overrides a collaborator the container would otherwise build.
type Option func(*Container)

// WithClassifier injects the language-understanding collaborator
func WithClassifier(c port.IntentClassifier) Option {
	return func(ct *Container) {
		ct.classifier = c
	}
}

// WithSpeaker injects the speech collaborator
func WithSpeaker(s port.Speaker) Option {
	return func(ct *Container) {
		ct.speaker = s
	}
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	c := &Container{
		config: cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := cfg.Validate(c.classifier == nil); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return c, nil
}

// Start initializes all components in dependency order:
// 1. Database and repositories
// 2. Catalog, dispatcher and event journal
// 3. External collaborators (classifier, speaker, exporter)
// 4. Application services and orchestrator
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization",
		zap.String("driver", c.config.Database.Driver))

	// Step 1: Initialize database and repositories
	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Record store initialized")

	// Step 2: Initialize catalog and dispatcher
	if err := c.initDispatcher(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.logger.Info("Dispatcher initialized")

	// Step 3: Initialize external collaborators
	if err := c.initExternal(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize external clients: %w", err)
	}
	c.logger.Info("External clients initialized")

	// Step 4: Initialize application services
	if err := c.initServices(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Step 1: Close dispatcher (reverse of step 2)
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	// Step 2: Close database (reverse of step 1)
	if c.sqlDB != nil {
		if err := c.sqlDB.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return errors.Join(errs...)
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	switch {
	case c.repositories == nil:
		status.Components["database"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	case c.sqlDB == nil:
		status.Components["database"] = ComponentHealth{Healthy: true, Message: DriverMemory}
	default:
		if err := c.sqlDB.Ping(); err != nil {
			status.Components["database"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true, Message: DriverSQLite}
		}
	}

	if c.dispatcher != nil {
		status.Components["dispatcher"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["dispatcher"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	if c.orchestrator != nil {
		status.Components["orchestrator"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["orchestrator"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	return status
}

// NewConversation starts a conversation with its own draft lifecycle over the
// shared record stores.
func (c *Container) NewConversation() *orchestrator.Conversation {
	lifecycle := service.NewInvoiceLifecycle(
		c.services.Composer,
		c.repositories.Invoice,
		c.services.Ledger,
		c.repositories.TxManager,
		c.dispatcher,
		utils.NewKVLogger(c.logger),
	)
	return orchestrator.NewConversation(lifecycle, c.config.Shop.Greeting, c.config.Shop.VoiceEnabled)
}

// initDatabase initializes the record store and repositories using providers.
func (c *Container) initDatabase() error {
	dbBundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.sqlDB = dbBundle.SqlDB

	repos, err := ProvideRepositories(dbBundle.TransactionMgr, c.logger)
	if err != nil {
		c.closeDatabase()
		return err
	}

	c.repositories = repos
	return nil
}

// initDispatcher creates the dispatcher and, when records are persisted,
// subscribes the event journal.
func (c *Container) initDispatcher() error {
	c.catalog = c.config.Catalog
	if c.catalog == nil {
		c.catalog = catalog.Default()
	}

	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp

	if c.repositories.EventLog != nil {
		service.RegisterJournal(c.dispatcher, c.repositories.EventLog)
		c.logger.Info("Event journal registered")
	}
	return nil
}

// initExternal initializes the classifier, speaker and exporter.
func (c *Container) initExternal() error {
	if c.classifier == nil {
		classifier, err := ProvideClassifier(&c.config.OpenAI, c.catalog, c.logger)
		if err != nil {
			return err
		}
		c.classifier = classifier
	}

	if c.speaker == nil {
		c.speaker = speech.NewLogSpeaker(c.logger)
	}

	c.exporter = export.NewInvoiceExporter(c.logger)
	return nil
}

// initServices initializes all application services using providers.
func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Repos:      c.repositories,
		Catalog:    c.catalog,
		Dispatcher: c.dispatcher,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services

	c.orchestrator = orchestrator.New(
		c.classifier,
		c.speaker,
		services.Reminders,
		services.Payments,
		services.Queries,
		utils.NewKVLogger(c.logger),
	)
	return nil
}

func (c *Container) closeDatabase() {
	if c.sqlDB != nil {
		_ = c.sqlDB.Close()
		c.sqlDB = nil
	}
}

// Getters for accessing container components

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Orchestrator returns the conversation orchestrator.
func (c *Container) Orchestrator() *orchestrator.Orchestrator {
	return c.orchestrator
}

// Catalog returns the product catalog.
func (c *Container) Catalog() *catalog.Catalog {
	return c.catalog
}

// Exporter returns the invoice workbook exporter.
func (c *Container) Exporter() *export.InvoiceExporter {
	return c.exporter
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
