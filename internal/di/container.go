package di

import (
	"log"

	"github.com/GoArmGo/UserManagerApp/internal/adapter/randomuser"
	"github.com/GoArmGo/UserManagerApp/internal/adapter/storage/minio"
	"github.com/GoArmGo/UserManagerApp/internal/app"
	"github.com/GoArmGo/UserManagerApp/internal/auth"
	"github.com/GoArmGo/UserManagerApp/internal/config"
	"github.com/GoArmGo/UserManagerApp/internal/core/ports"
	"github.com/GoArmGo/UserManagerApp/internal/csvstore"
	"github.com/GoArmGo/UserManagerApp/internal/database/client"
	"github.com/GoArmGo/UserManagerApp/internal/database/storage"
	"github.com/GoArmGo/UserManagerApp/internal/logger"
	"github.com/GoArmGo/UserManagerApp/internal/rabbitmq"
	"github.com/GoArmGo/UserManagerApp/internal/usecase"
)

// BuildApp инициализирует все зависимости и возвращает готовый объект App.
func BuildApp() (*app.App, error) {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	slogCfg := logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}
	slogger := logger.NewSlog(slogCfg)

	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)

	// 2. Инициализация PostgreSQL клиента (sqlx + gorm поверх одного пула)
	dbClient, err := client.NewClient(cfg, slogger)
	if err != nil {
		return nil, err
	}

	// 3. Инициализация хранилищ
	userStore := storage.NewUserStore(dbClient.DB, slogger)
	authStore := storage.NewAuthStore(dbClient.Gorm, slogger)

	// Фабрика CSV-зеркал: на каждого владельца свой файл в DataDir
	fileFactory := usecase.UserFileFactory(func(ownerID int64) (ports.UserFile, error) {
		return csvstore.NewStore(cfg.DataDir, ownerID, slogger)
	})
	registry := usecase.NewRegistry(userStore, fileFactory, slogger)

	// 4. Инициализация клиентов внешних сервисов
	randomUserClient := randomuser.NewClient(cfg, slogger)
	fileStorage, err := minio.NewMinioClient(cfg)
	if err != nil {
		return nil, err
	}

	// 5. Инициализация RabbitMQ клиента (он же publisher и consumer)
	rabbitMQClient, err := rabbitmq.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	// 6. Сервис аутентификации
	authService := auth.NewService(authStore, cfg.JWTSecret, cfg.JWTTTL, slogger)

	// 7. Сборка итогового приложения
	application := app.NewApp(
		cfg,
		slogger,
		dbClient,
		registry,
		randomUserClient,
		authService,
		fileStorage,
		rabbitMQClient,
		rabbitMQClient,
	)

	log.Println("[container] Все зависимости успешно инициализированы.")
	return application, nil
}
