package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/FACorreiaa/statement-import/internal/domain/categorization"
	"github.com/FACorreiaa/statement-import/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/statement-import/internal/domain/import/service"
	"github.com/FACorreiaa/statement-import/pkg/config"
	"github.com/FACorreiaa/statement-import/pkg/db"
	"github.com/FACorreiaa/statement-import/pkg/storage"
)

// Dependencies holds everything one importer run needs.
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger
	UserID uuid.UUID
	DryRun bool

	// Repositories
	Ledger   repository.Ledger
	Memory   *repository.MemoryLedger // set on a dry run
	Mappings repository.MappingStore
	Rules    categorization.RuleStore
	RuleRepo *categorization.Repository
	Archive  storage.Archive // nil unless an archive directory is configured

	// Services
	Registry      *prometheus.Registry
	ImportService *importservice.ImportService
}

// InitDependencies wires the stores and the import service. A dry run keeps everything in
// memory and never opens the database.
func InitDependencies(cfg *config.Config, logger *slog.Logger, userID uuid.UUID, dryRun bool) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
		UserID: userID,
		DryRun: dryRun,
	}

	if !dryRun {
		if err := deps.initDatabase(); err != nil {
			return nil, fmt.Errorf("failed to init database: %w", err)
		}
	}

	if err := deps.initRepositories(); err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	deps.initServices()

	logger.Debug("dependencies initialized", "dry_run", dryRun, "user_id", userID)
	return deps, nil
}

// initDatabase opens the pool and applies migrations.
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        int32(d.Config.Database.MaxConns),
		MinConns:        int32(d.Config.Database.MinConns),
		MaxConnLifetime: d.Config.Database.MaxConnLifetime,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}
	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		d.DB.Close()
		d.DB = nil
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// initRepositories picks the Postgres stores, or in-memory ones for a dry run. A rules
// file, when configured, replaces the stored merchant rules. Dry runs never archive.
func (d *Dependencies) initRepositories() error {
	if d.DB != nil {
		d.Ledger = repository.NewLedgerRepository(d.DB.Pool, d.UserID, d.Config.Import.Currency)
		d.Mappings = repository.NewMappingRepository(d.DB.Pool, d.UserID)
		d.RuleRepo = categorization.NewRepository(d.DB.Pool, d.UserID)
		d.Rules = d.RuleRepo
	} else {
		d.Memory = repository.NewMemoryLedger()
		d.Ledger = d.Memory
		d.Mappings = repository.NewMemoryMappings()
		d.Rules = categorization.StaticRules(nil)
	}

	if dir := d.Config.Import.ArchiveDir; dir != "" && !d.DryRun {
		archive, err := storage.NewLocalArchive(dir)
		if err != nil {
			return err
		}
		d.Archive = archive
	}

	if path := d.Config.Import.RulesFile; path != "" {
		rules, err := loadRulesFile(path)
		if err != nil {
			return err
		}
		d.Rules = categorization.StaticRules(rules)
		d.Logger.Info("merchant rules loaded from file", "path", path, "count", len(rules))
	}
	return nil
}

func (d *Dependencies) initServices() {
	d.Registry = prometheus.NewRegistry()
	d.ImportService = importservice.NewImportService(d.Ledger, d.Rules, d.Mappings, d.Logger).
		WithOptions(importservice.Options{
			DefaultCategoryID: d.Config.Import.DefaultCategoryID,
			SampleRows:        d.Config.Import.SampleRows,
			MaxFileBytes:      d.Config.Import.MaxFileBytes,
			Currency:          d.Config.Import.Currency,
		}).
		WithMetrics(importservice.NewMetrics(d.Registry))
}

// WriteMetrics dumps the run's counters to the configured textfile, if any.
func (d *Dependencies) WriteMetrics() error {
	obs := d.Config.Observability
	if !obs.MetricsEnabled || obs.MetricsTextfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(obs.MetricsTextfile, d.Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Close releases the database pool.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}

func loadRulesFile(path string) ([]categorization.MerchantRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rules file: %w", err)
	}
	defer f.Close()

	rules, err := categorization.LoadRules(path, f)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules file %s: %w", path, err)
	}
	return rules, nil
}
