package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/UserManagerApp/internal/core/ports"
	"github.com/GoArmGo/UserManagerApp/internal/domain"
)

// loginUUIDPath — dot-путь натурального ключа в CSV-зеркале
const loginUUIDPath = "login.uuid"

// syncAction — решение стартовой сверки хранилищ
type syncAction int

const (
	actionNone syncAction = iota
	actionImportCSVToDB
	actionRegenerateCSV
)

// reconcilePlan — именованная политика сверки: сравнивает только количество
// записей, при любом расхождении побеждает БД. Известное ограничение:
// одинаковое количество при разошедшемся содержимом сверкой не обнаруживается.
// Политика вынесена в отдельную функцию, чтобы ее можно было заменить
// на более строгую проверку, не трогая вызывающий код.
func reconcilePlan(dbCount, csvCount int) syncAction {
	switch {
	case dbCount == 0 && csvCount > 0:
		// БД пуста (например, сброшена) — файл служит источником восстановления
		return actionImportCSVToDB
	case dbCount > 0 && csvCount == 0:
		return actionRegenerateCSV
	case dbCount > 0 && csvCount > 0 && dbCount != csvCount:
		return actionRegenerateCSV
	default:
		return actionNone
	}
}

// userInteractor implements UserUseCase
type userInteractor struct {
	db      ports.UserDatabase
	file    ports.UserFile
	ownerID int64
	logger  *slog.Logger
}

// NewUserInteractor создает координатор хранилищ одного владельца и сразу
// выполняет стартовую сверку. Ошибка сверки логируется и проглатывается:
// координатор все равно становится рабочим — доступность важнее строгой
// согласованности, расхождение добьет следующая сверка или явный sync.
func NewUserInteractor(
	ctx context.Context,
	db ports.UserDatabase,
	file ports.UserFile,
	ownerID int64,
	logger *slog.Logger,
) UserUseCase {
	uc := &userInteractor{
		db:      db,
		file:    file,
		ownerID: ownerID,
		logger:  logger,
	}

	if err := uc.reconcile(ctx); err != nil {
		logger.Error("store reconciliation failed, coordinator stays operational",
			"owner_id", ownerID,
			"error", err,
		)
	}

	return uc
}

// reconcile приводит БД и CSV к согласованному состоянию по политике reconcilePlan
func (uc *userInteractor) reconcile(ctx context.Context) error {
	dbUsers, err := uc.db.GetAllUsers(ctx, uc.ownerID)
	if err != nil {
		return fmt.Errorf("сверка: ошибка чтения БД: %w", err)
	}
	csvUsers, err := uc.file.GetAllUsers(ctx)
	if err != nil {
		return fmt.Errorf("сверка: ошибка чтения CSV: %w", err)
	}

	switch reconcilePlan(len(dbUsers), len(csvUsers)) {
	case actionImportCSVToDB:
		uc.logger.Info("reconcile: empty database, importing users from csv",
			"owner_id", uc.ownerID, "count", len(csvUsers))
		if err := uc.db.AddUsers(ctx, stripCSVIDs(csvUsers), uc.ownerID); err != nil {
			return fmt.Errorf("сверка: ошибка импорта CSV в БД: %w", err)
		}

	case actionRegenerateCSV:
		uc.logger.Warn("reconcile: store divergence detected, database wins",
			"owner_id", uc.ownerID,
			"db_count", len(dbUsers),
			"csv_count", len(csvUsers),
		)
		if err := uc.file.Rewrite(ctx, mirrorOfDB(dbUsers)); err != nil {
			return fmt.Errorf("сверка: ошибка перегенерации CSV из БД: %w", err)
		}

	default:
		uc.logger.Info("reconcile: stores already in sync", "owner_id", uc.ownerID, "count", len(dbUsers))
	}

	return nil
}

// AddUsers пишет пачку в БД, затем дописывает ее в CSV.
// Порядок фиксированный: транзакция БД завершается (commit или rollback)
// до первой попытки записи в файл.
func (uc *userInteractor) AddUsers(ctx context.Context, users []domain.User) error {
	if err := uc.db.AddUsers(ctx, users, uc.ownerID); err != nil {
		return err
	}
	if err := uc.file.AddUsers(ctx, users); err != nil {
		return err
	}

	uc.logger.Info("users saved to both stores", "owner_id", uc.ownerID, "count", len(users))
	return nil
}

func (uc *userInteractor) GetAllUsers(ctx context.Context) ([]domain.DBUser, error) {
	return uc.db.GetAllUsers(ctx, uc.ownerID)
}

func (uc *userInteractor) GetUserByID(ctx context.Context, dbID int64) (*domain.DBUser, error) {
	return uc.db.GetUserByID(ctx, dbID, uc.ownerID)
}

// UpdateUser обновляет запись в БД, затем ту же логическую запись в CSV.
// Запись в файле ищется по login.uuid: значения db_id и csv_id независимы.
// Отсутствие записи в файле не роняет операцию — обновление БД уже состоялось.
func (uc *userInteractor) UpdateUser(ctx context.Context, dbID int64, partial map[string]any) (*domain.DBUser, error) {
	updated, err := uc.db.UpdateUser(ctx, dbID, uc.ownerID, partial)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, nil
	}

	matches, err := uc.file.SearchUsers(ctx, updated.Login.UUID, []string{loginUUIDPath})
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска записи в CSV по login.uuid: %w", err)
	}

	if len(matches) > 0 {
		if _, err := uc.file.UpdateUser(ctx, matches[0].CSVID, partial); err != nil {
			return nil, fmt.Errorf("ошибка обновления записи в CSV: %w", err)
		}
	} else {
		uc.logger.Warn("user updated in database but missing from csv mirror",
			"owner_id", uc.ownerID,
			"db_id", dbID,
			"login_uuid", updated.Login.UUID,
		)
	}

	return updated, nil
}

// DeleteUser сначала читает запись, чтобы запомнить login.uuid, затем удаляет
// из БД; файл трогается только после подтвержденного удаления из БД
func (uc *userInteractor) DeleteUser(ctx context.Context, dbID int64) (bool, error) {
	target, err := uc.db.GetUserByID(ctx, dbID, uc.ownerID)
	if err != nil {
		return false, err
	}
	if target == nil {
		return false, nil
	}

	deleted, err := uc.db.DeleteUser(ctx, dbID, uc.ownerID)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, nil
	}

	matches, err := uc.file.SearchUsers(ctx, target.Login.UUID, []string{loginUUIDPath})
	if err != nil {
		return false, fmt.Errorf("ошибка поиска записи в CSV по login.uuid: %w", err)
	}
	if len(matches) > 0 {
		if _, err := uc.file.DeleteUser(ctx, matches[0].CSVID); err != nil {
			return false, fmt.Errorf("ошибка удаления записи из CSV: %w", err)
		}
	}

	uc.logger.Info("user removed from both stores", "owner_id", uc.ownerID, "db_id", dbID)
	return true, nil
}

func (uc *userInteractor) SearchUsers(ctx context.Context, term string, fields []string) ([]domain.DBUser, error) {
	return uc.db.SearchUsers(ctx, uc.ownerID, term, fields)
}

// SyncDatabaseToCSV перегенерирует CSV из БД; csv_id получает значение db_id,
// как при любой полной регенерации файла
func (uc *userInteractor) SyncDatabaseToCSV(ctx context.Context) error {
	dbUsers, err := uc.db.GetAllUsers(ctx, uc.ownerID)
	if err != nil {
		return err
	}
	if err := uc.file.Rewrite(ctx, mirrorOfDB(dbUsers)); err != nil {
		return err
	}

	uc.logger.Info("forced database to csv sync completed", "owner_id", uc.ownerID, "count", len(dbUsers))
	return nil
}

// EnsureCSV готовит файл к отдаче: поврежденный CSV приравнивается
// к отсутствующему и перегенерируется из БД
func (uc *userInteractor) EnsureCSV(ctx context.Context) (string, error) {
	if err := uc.file.Validate(); err != nil {
		uc.logger.Warn("csv mirror failed validation, regenerating from database",
			"owner_id", uc.ownerID,
			"error", err,
		)
		if syncErr := uc.SyncDatabaseToCSV(ctx); syncErr != nil {
			return "", syncErr
		}
	}
	return uc.file.Path(), nil
}

func (uc *userInteractor) CSVPath() string {
	return uc.file.Path()
}

// mirrorOfDB переводит записи БД в формат CSV-зеркала: csv_id := db_id
func mirrorOfDB(dbUsers []domain.DBUser) []domain.CSVUser {
	csvUsers := make([]domain.CSVUser, 0, len(dbUsers))
	for _, u := range dbUsers {
		csvUsers = append(csvUsers, domain.CSVUser{User: u.User, CSVID: u.DBID})
	}
	return csvUsers
}

// stripCSVIDs возвращает чистые записи User для импорта в БД:
// идентификаторы файла в таблицу не переносятся, db_id выдаст сама таблица
func stripCSVIDs(csvUsers []domain.CSVUser) []domain.User {
	users := make([]domain.User, 0, len(csvUsers))
	for _, u := range csvUsers {
		users = append(users, u.User)
	}
	return users
}
