package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/GoArmGo/UserManagerApp/internal/core/ports"
)

// UserFileFactory создает CSV-хранилище для конкретного владельца
// (ownerID определяет путь к файлу)
type UserFileFactory func(ownerID int64) (ports.UserFile, error)

// Registry выдает координаторы по владельцам: на каждого владельца ровно один
// экземпляр на процесс. Так все мутации файла владельца проходят через один
// мьютекс CSV-хранилища, а стартовая сверка выполняется один раз.
type Registry struct {
	db          ports.UserDatabase
	fileFactory UserFileFactory
	logger      *slog.Logger

	mu          sync.Mutex
	interactors map[int64]UserUseCase
}

// NewRegistry создает новый реестр координаторов
func NewRegistry(db ports.UserDatabase, fileFactory UserFileFactory, logger *slog.Logger) *Registry {
	return &Registry{
		db:          db,
		fileFactory: fileFactory,
		logger:      logger,
		interactors: make(map[int64]UserUseCase),
	}
}

// ForOwner возвращает координатор владельца, создавая его при первом обращении
func (r *Registry) ForOwner(ctx context.Context, ownerID int64) (UserUseCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if uc, ok := r.interactors[ownerID]; ok {
		return uc, nil
	}

	file, err := r.fileFactory(ownerID)
	if err != nil {
		return nil, err
	}

	uc := NewUserInteractor(ctx, r.db, file, ownerID, r.logger)
	r.interactors[ownerID] = uc
	return uc, nil
}
