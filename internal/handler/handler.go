package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/GoArmGo/UserManagerApp/internal/core/ports"
	"github.com/GoArmGo/UserManagerApp/internal/domain"
	"github.com/GoArmGo/UserManagerApp/internal/messaging/payloads"
	"github.com/GoArmGo/UserManagerApp/internal/usecase"
)

// UserHandler — обработчик HTTP-запросов для работы с коллекциями пользователей.
type UserHandler struct {
	registry        *usecase.Registry
	fetcher         usecase.UserFetcher
	exportPublisher ports.CSVExportPublisher
	logger          *slog.Logger
}

// NewUserHandler создаёт новый экземпляр UserHandler.
func NewUserHandler(
	registry *usecase.Registry,
	fetcher usecase.UserFetcher,
	exportPublisher ports.CSVExportPublisher,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		registry:        registry,
		fetcher:         fetcher,
		exportPublisher: exportPublisher,
		logger:          logger,
	}
}

// respondWithJSON — отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError — отправляет JSON-ответ с ошибкой.
func respondWithError(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, map[string]string{"error": message}, logger)
}

// useCaseForRequest возвращает координатор владельца из токена запроса.
// При невозможности получить координатор ответ уже отправлен.
func (h *UserHandler) useCaseForRequest(w http.ResponseWriter, r *http.Request) (usecase.UserUseCase, bool) {
	authUser, ok := authUserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Требуется токен авторизации", h.logger)
		return nil, false
	}

	uc, err := h.registry.ForOwner(r.Context(), authUser.ID)
	if err != nil {
		h.logger.Error("failed to obtain owner coordinator", "owner_id", authUser.ID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Ошибка инициализации хранилища", h.logger)
		return nil, false
	}
	return uc, true
}

// FetchFromAPI — запрашивает пользователей у Random User API и возвращает их
// клиенту без сохранения. Полученные записи — кандидаты: в коллекцию
// владельца попадает только выборка, явно отправленная на /save.
func (h *UserHandler) FetchFromAPI(w http.ResponseWriter, r *http.Request) {
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	gender := r.URL.Query().Get("gender")
	nat := r.URL.Query().Get("nat")

	h.logger.Info("fetching users from external api",
		"endpoint", "FetchFromAPI",
		"size", size,
		"gender", gender,
		"nat", nat,
	)

	users, err := h.fetcher.FetchUsers(r.Context(), size, gender, nat)
	if err != nil {
		h.logger.Error("failed to fetch users from external api", "error", err)
		respondWithError(w, http.StatusBadGateway, "Ошибка получения пользователей из внешнего API", h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(users),
		"data":    users,
	}, h.logger)
}

type saveUsersRequest struct {
	Users []domain.User `json:"users"`
}

// SaveUsers — сохраняет переданный клиентом список пользователей.
func (h *UserHandler) SaveUsers(w http.ResponseWriter, r *http.Request) {
	uc, ok := h.useCaseForRequest(w, r)
	if !ok {
		return
	}

	var req saveUsersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Некорректное тело запроса", h.logger)
		return
	}
	if len(req.Users) == 0 {
		respondWithError(w, http.StatusBadRequest, "Список пользователей пуст", h.logger)
		return
	}

	if err := uc.AddUsers(r.Context(), req.Users); err != nil {
		h.logger.Error("failed to save users", "count", len(req.Users), "error", err)
		respondWithError(w, http.StatusInternalServerError, "Ошибка сохранения пользователей", h.logger)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Пользователи успешно сохранены",
		"count":   len(req.Users),
	}, h.logger)
}

// ListUsers — возвращает всех пользователей коллекции владельца.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	uc, ok := h.useCaseForRequest(w, r)
	if !ok {
		return
	}

	users, err := uc.GetAllUsers(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Ошибка получения пользователей", h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, users, h.logger)
}

// GetUserByID — возвращает пользователя по db_id.
func (h *UserHandler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	uc, ok := h.useCaseForRequest(w, r)
	if !ok {
		return
	}

	dbID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Некорректный идентификатор", h.logger)
		return
	}

	user, err := uc.GetUserByID(r.Context(), dbID)
	if err != nil {
		h.logger.Error("failed to get user", "db_id", dbID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Ошибка получения пользователя", h.logger)
		return
	}
	if user == nil {
		respondWithError(w, http.StatusNotFound, "Пользователь не найден", h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, user, h.logger)
}

// UpdateUser — применяет частичное обновление к пользователю в обоих хранилищах.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	uc, ok := h.useCaseForRequest(w, r)
	if !ok {
		return
	}

	dbID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Некорректный идентификатор", h.logger)
		return
	}

	var partial map[string]any
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		respondWithError(w, http.StatusBadRequest, "Некорректное тело запроса", h.logger)
		return
	}
	if len(partial) == 0 {
		respondWithError(w, http.StatusBadRequest, "Пустое обновление", h.logger)
		return
	}

	updated, err := uc.UpdateUser(r.Context(), dbID, partial)
	if err != nil {
		h.logger.Error("failed to update user", "db_id", dbID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Ошибка обновления пользователя", h.logger)
		return
	}
	if updated == nil {
		respondWithError(w, http.StatusNotFound, "Пользователь не найден", h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, updated, h.logger)
}

// DeleteUser — удаляет пользователя из обоих хранилищ.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	uc, ok := h.useCaseForRequest(w, r)
	if !ok {
		return
	}

	dbID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Некорректный идентификатор", h.logger)
		return
	}

	deleted, err := uc.DeleteUser(r.Context(), dbID)
	if err != nil {
		h.logger.Error("failed to delete user", "db_id", dbID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Ошибка удаления пользователя", h.logger)
		return
	}
	if !deleted {
		respondWithError(w, http.StatusNotFound, "Пользователь не найден", h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Пользователь удален"}, h.logger)
}

// SearchUsers — поиск по коллекции владельца. Параметр term обязателен,
// fields — необязательный список колонок через запятую.
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	uc, ok := h.useCaseForRequest(w, r)
	if !ok {
		return
	}

	term := r.URL.Query().Get("term")
	if term == "" {
		term = r.URL.Query().Get("q")
	}
	if term == "" {
		respondWithError(w, http.StatusBadRequest, "Не указан поисковый запрос", h.logger)
		return
	}

	var fields []string
	if raw := r.URL.Query().Get("fields"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
	}

	users, err := uc.SearchUsers(r.Context(), term, fields)
	if err != nil {
		// Ошибка валидации полей — вина клиента, все остальное — сбой хранилища
		if errors.Is(err, ports.ErrInvalidSearchField) {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Ошибка поиска: %v", err), h.logger)
			return
		}
		h.logger.Error("search failed", "term", term, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Ошибка поиска пользователей", h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, users, h.logger)
}

// DownloadCSV — отдает CSV-файл владельца как вложение. Поврежденный или
// отсутствующий файл перед отдачей перегенерируется из БД.
func (h *UserHandler) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	uc, ok := h.useCaseForRequest(w, r)
	if !ok {
		return
	}

	path, err := uc.EnsureCSV(r.Context())
	if err != nil {
		h.logger.Error("failed to prepare csv for download", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Ошибка подготовки CSV-файла", h.logger)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

// SyncCSV — принудительно перегенерирует CSV из текущего содержимого БД.
func (h *UserHandler) SyncCSV(w http.ResponseWriter, r *http.Request) {
	uc, ok := h.useCaseForRequest(w, r)
	if !ok {
		return
	}

	if err := uc.SyncDatabaseToCSV(r.Context()); err != nil {
		h.logger.Error("forced sync failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Ошибка синхронизации CSV", h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "CSV синхронизирован с базой данных"}, h.logger)
}

// ExportCSV — ставит в очередь задание на выгрузку CSV владельца
// в объектное хранилище. Сам экспорт выполняет воркер.
func (h *UserHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	authUser, ok := authUserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Требуется токен авторизации", h.logger)
		return
	}

	payload := payloads.CSVExportPayload{OwnerID: authUser.ID}
	if err := h.exportPublisher.PublishCSVExportRequest(r.Context(), payload); err != nil {
		h.logger.Error("failed to publish export request", "owner_id", authUser.ID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Ошибка постановки экспорта в очередь", h.logger)
		return
	}

	h.logger.Info("export request queued", "owner_id", authUser.ID)
	respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "Экспорт поставлен в очередь"}, h.logger)
}
