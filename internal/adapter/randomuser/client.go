package randomuser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/GoArmGo/UserManagerApp/internal/config"
	"github.com/GoArmGo/UserManagerApp/internal/domain"
)

const (
	defaultSize = 10
	maxRetries  = 3
)

// Client представляет клиент для взаимодействия с Random User API.
// Реализует интерфейс usecase.UserFetcher: ретраи с экспоненциальной
// задержкой, 4xx без повторов, mock-fallback после исчерпания попыток.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewClient создает новый экземпляр Client
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.FetchTimeout},
		baseURL:    cfg.RandomUserURL,
		retryDelay: time.Second,
		logger:     logger,
	}
}

// FetchUsers запрашивает size пользователей у Random User API.
// gender и nat — необязательные фильтры, поддерживаемые самим API.
// 4xx прерывает запрос сразу (ошибка параметров не лечится повтором);
// после maxRetries неудач возвращаются синтетические записи — внешняя
// недоступность не должна блокировать работу с приложением.
func (c *Client) FetchUsers(ctx context.Context, size int, gender, nat string) ([]domain.User, error) {
	if size <= 0 {
		size = defaultSize
	}

	endpoint := c.buildURL(size, gender, nat)

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1))
			c.logger.Info("retrying random user fetch", "attempt", attempt+1, "delay", delay.String())
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		users, err := c.fetchOnce(ctx, endpoint)
		if err == nil {
			c.logger.Info("random users fetched", "count", len(users))
			return users, nil
		}

		var clientErr *clientError
		if errors.As(err, &clientErr) {
			// 4xx: неверные параметры, повторы и fallback не применяются
			return nil, err
		}
		lastErr = err
		c.logger.Warn("random user fetch attempt failed", "attempt", attempt+1, "error", err)
	}

	c.logger.Warn("random user API unavailable, falling back to mock users",
		"size", size,
		"last_error", lastErr,
	)
	return generateMockUsers(size), nil
}

// fetchOnce выполняет один HTTP-запрос и разбирает конверт {results: [...]}
func (c *Client) fetchOnce(ctx context.Context, endpoint string) ([]domain.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP-запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения HTTP-запроса к Random User API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &clientError{status: resp.StatusCode, body: string(bodyBytes)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("неожиданный статус ответа Random User API: %d", resp.StatusCode)
	}

	var response apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("ошибка декодирования JSON ответа Random User API: %w", err)
	}
	if len(response.Results) == 0 {
		return nil, fmt.Errorf("пустой ответ Random User API")
	}

	users := make([]domain.User, 0, len(response.Results))
	for _, apiUser := range response.Results {
		users = append(users, apiUser.toDomain())
	}
	return users, nil
}

func (c *Client) buildURL(size int, gender, nat string) string {
	params := url.Values{}
	params.Set("results", strconv.Itoa(size))
	if gender != "" {
		params.Set("gender", gender)
	}
	if nat != "" {
		params.Set("nat", nat)
	}
	return fmt.Sprintf("%s?%s", c.baseURL, params.Encode())
}

// clientError — ошибка 4xx от внешнего API: не ретраится и не маскируется fallback'ом
type clientError struct {
	status int
	body   string
}

func (e *clientError) Error() string {
	return fmt.Sprintf("ошибка клиента (%d): %s", e.status, e.body)
}
