package ports

import (
	"context"

	"github.com/GoArmGo/UserManagerApp/internal/messaging/payloads"
)

// CSVExportPublisher определяет методы для публикации заданий на экспорт CSV
// Этот интерфейс будет использоваться обработчиком HTTP-запросов
type CSVExportPublisher interface {
	PublishCSVExportRequest(ctx context.Context, payload payloads.CSVExportPayload) error
}

// CSVExportConsumer определяет методы для потребления заданий на экспорт,
// будет использоваться воркером для получения задач из очереди
type CSVExportConsumer interface {
	// StartConsumingCSVExportRequests начинает прослушивание очереди;
	// принимает функцию-обработчик, которая вызывается для каждого задания
	StartConsumingCSVExportRequests(ctx context.Context, handler func(context.Context, payloads.CSVExportPayload) error) error
}
