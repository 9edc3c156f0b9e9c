package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/councilworks/finance-portal/internal/application/service"
	"github.com/councilworks/finance-portal/internal/config"
	"github.com/councilworks/finance-portal/internal/infrastructure/persistence/repository"
	"github.com/councilworks/finance-portal/internal/infrastructure/persistence/sqlite"
	"github.com/councilworks/finance-portal/internal/infrastructure/storage"
	"github.com/councilworks/finance-portal/internal/interfaces/http"
	"github.com/councilworks/finance-portal/internal/receipt"
	"github.com/councilworks/finance-portal/internal/voucher"
	"github.com/councilworks/finance-portal/pkg/database"
	"github.com/councilworks/finance-portal/pkg/utils"
)

func main() {
	// Local .env overrides are optional
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting finance portal",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	sqlDB, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer sqlDB.Close()

	migrator := database.NewMigrator(sqlDB, logger)
	if err := migrator.Run(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	db := sqlite.NewDB(sqlDB, logger)

	// Repositories
	docRepo := repository.NewDocumentRepository(db, logger)
	itemRepo := repository.NewBillItemRepository(db, logger)
	seqRepo := repository.NewSequenceRepository(db, logger)
	histRepo := repository.NewHistoryRepository(db, logger)

	// Infrastructure adapters
	fileStore := storage.NewRemoteFileStore(cfg.FileStore.BaseURL, cfg.FileStore.Timeout, logger)
	inspector := receipt.NewInspector(logger)
	voucherFiller := voucher.NewFiller(cfg.Voucher.InstituteName, logger)

	serviceLogger := &zapLoggerAdapter{logger: logger}

	// Application services
	documentService := service.NewDocumentService(
		docRepo, itemRepo, seqRepo, histRepo, db, fileStore, inspector, serviceLogger)
	approvalService := service.NewApprovalService(docRepo, histRepo, db, serviceLogger)
	voucherService := service.NewVoucherService(docRepo, itemRepo, voucherFiller, serviceLogger)

	server := http.NewServer(http.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, documentService, approvalService, voucherService, serviceLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited")
}

// zapLoggerAdapter adapts zap.Logger to the service and http Logger
// interfaces.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
