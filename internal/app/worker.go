package app

import (
	"context"
	"fmt"
	"os"

	"github.com/GoArmGo/UserManagerApp/internal/messaging/payloads"
)

// runWorker запускает потребителя очереди экспорта и блокируется до отмены
// контекста. На каждое задание воркер перегенерирует CSV владельца из БД
// и выгружает файл в объектное хранилище.
func (a *App) runWorker(ctx context.Context) error {
	a.logger.Info("export worker starting, waiting for messages")

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	exportHandler := func(ctx context.Context, payload payloads.CSVExportPayload) error {
		a.logger.Info("processing csv export request", "owner_id", payload.OwnerID)

		uc, err := a.registry.ForOwner(ctx, payload.OwnerID)
		if err != nil {
			return fmt.Errorf("ошибка получения координатора владельца %d: %w", payload.OwnerID, err)
		}

		// Экспортируется свежее состояние БД, а не текущее содержимое файла
		if err := uc.SyncDatabaseToCSV(ctx); err != nil {
			return fmt.Errorf("ошибка синхронизации CSV владельца %d: %w", payload.OwnerID, err)
		}

		file, err := os.Open(uc.CSVPath())
		if err != nil {
			return fmt.Errorf("ошибка открытия CSV-файла владельца %d: %w", payload.OwnerID, err)
		}
		defer file.Close()

		objectKey := fmt.Sprintf("exports/users_%d.csv", payload.OwnerID)
		location, err := a.fileStorage.UploadFile(ctx, objectKey, file, "text/csv")
		if err != nil {
			return fmt.Errorf("ошибка выгрузки экспорта владельца %d: %w", payload.OwnerID, err)
		}

		a.logger.Info("csv export uploaded", "owner_id", payload.OwnerID, "location", location)
		return nil
	}

	if err := a.exportConsumer.StartConsumingCSVExportRequests(workerCtx, exportHandler); err != nil {
		return fmt.Errorf("ошибка при запуске потребителя RabbitMQ: %w", err)
	}

	<-ctx.Done()

	a.logger.Info("shutdown signal received, stopping export worker")
	cancelWorker()
	return nil
}
