package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/exp/slog"

	"reptisync/internal/app/client/config"
	"reptisync/internal/domain/sync"
)

const userAgent = "Reptisync-Client/1.0"

// httpClient клиент протокола синхронизации
type httpClient struct {
	client  *http.Client
	log     *slog.Logger
	baseURL string
	token   string
}

func NewHTTPClient(cfg *config.Config, log *slog.Logger) *httpClient {
	return &httpClient{
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     log.With(slog.String("component", "http_client")),
		baseURL: cfg.BaseURL(),
		token:   cfg.Token,
	}
}

func (h *httpClient) SetToken(token string) {
	h.token = token
}

func (h *httpClient) HealthCheck(ctx context.Context) error {
	if err := h.call(ctx, http.MethodGet, "/api/v1/health", nil, nil); err != nil {
		return fmt.Errorf("сервер недоступен: %w", err)
	}
	return nil
}

// Pull изменения после since (мс эпохи)
func (h *httpClient) Pull(ctx context.Context, since int64) (*PullData, error) {
	path := "/sync/pull?" + url.Values{"since": {strconv.FormatInt(since, 10)}}.Encode()

	var out pullResponse
	if err := h.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// PushBatch отправляет пакет. Результаты идут в порядке items
func (h *httpClient) PushBatch(ctx context.Context, items []BatchItem) (*sync.BatchDTO, error) {
	var out batchResponse
	if err := h.call(ctx, http.MethodPost, "/sync/batch", batchRequest{Operations: items}, &out); err != nil {
		return nil, err
	}
	if n := len(out.Data.Results); n != len(items) {
		return nil, fmt.Errorf("сервер вернул %d результатов на %d операций", n, len(items))
	}
	return &out.Data, nil
}

// call выполняет запрос и разбирает ответ в out.
// Статус >= 400 превращается в *APIError из конверта ошибки.
func (h *httpClient) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}
	h.log.Debug("HTTP", "method", method, "path", path, "status", resp.StatusCode, "bytes", len(raw))

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("ошибка парсинга ответа: %w", err)
	}
	return nil
}

func decodeAPIError(status int, raw []byte) *APIError {
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error == nil {
		return &APIError{Status: status, Code: "UNKNOWN", Message: http.StatusText(status)}
	}
	envelope.Error.Status = status
	return envelope.Error
}
