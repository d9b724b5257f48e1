package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/UserManagerApp/internal/auth"
	"github.com/GoArmGo/UserManagerApp/internal/config"
	"github.com/GoArmGo/UserManagerApp/internal/core/ports"
	"github.com/GoArmGo/UserManagerApp/internal/database/client"
	"github.com/GoArmGo/UserManagerApp/internal/usecase"
)

// App объединяет все зависимости приложения и управляет его жизненным циклом
type App struct {
	Config *config.Config

	logger          *slog.Logger
	dbClient        *client.Client
	registry        *usecase.Registry
	fetcher         usecase.UserFetcher
	authService     *auth.Service
	fileStorage     ports.FileStorage
	exportPublisher ports.CSVExportPublisher
	exportConsumer  ports.CSVExportConsumer
}

func NewApp(
	cfg *config.Config,
	logger *slog.Logger,
	dbClient *client.Client,
	registry *usecase.Registry,
	fetcher usecase.UserFetcher,
	authService *auth.Service,
	fileStorage ports.FileStorage,
	exportPublisher ports.CSVExportPublisher,
	exportConsumer ports.CSVExportConsumer,
) *App {
	return &App{
		Config:          cfg,
		logger:          logger,
		dbClient:        dbClient,
		registry:        registry,
		fetcher:         fetcher,
		authService:     authService,
		fileStorage:     fileStorage,
		exportPublisher: exportPublisher,
		exportConsumer:  exportConsumer,
	}
}

// LoggerIns возвращает основной логгер приложения
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

// Run запускает приложение в выбранном режиме и блокируется до сигнала завершения
func (a *App) Run(ctx context.Context, mode *string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("application starting", "mode", *mode)

	var err error
	switch *mode {
	case "server":
		err = a.runServer(ctx)
	case "worker":
		err = a.runWorker(ctx)
	default:
		err = fmt.Errorf("неизвестный режим: %s (используйте 'server' или 'worker')", *mode)
	}
	if err != nil {
		return err
	}

	log.Println("[app] Завершение работы...")
	if closeErr := a.Shutdown(); closeErr != nil {
		log.Printf("[app] ошибка при завершении: %v", closeErr)
	}
	log.Println("[app] Завершено корректно.")
	return nil
}

// Shutdown закрывает все ресурсы приложения
func (a *App) Shutdown() error {
	if a.dbClient != nil {
		if err := a.dbClient.Close(); err != nil {
			return fmt.Errorf("ошибка закрытия БД: %w", err)
		}
	}

	if closer, ok := a.exportPublisher.(interface{ Close() }); ok {
		closer.Close()
	}

	return nil
}
