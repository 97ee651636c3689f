package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) pullOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-pull",
		Method:      http.MethodGet,
		Path:        "/sync/pull",
		Summary:     "Получить изменения с сервера",
		Description: "Возвращает все записи пользователя, измененные после since, включая удаленные",
		Tags:        []string{"sync"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) pushOp() huma.Operation {
	return huma.Operation{
		OperationID:   "sync-push",
		Method:        http.MethodPost,
		Path:          "/sync/{table}",
		Summary:       "Отправить одно изменение",
		Description:   "Применяет CREATE, UPDATE или DELETE к таблице. При конфликте возвращает 409 и серверную версию",
		Tags:          []string{"sync"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusOK,
		MaxBodyBytes:  h.maxBodyBytes,
		Middlewares:   h.middleware,
	}
}

func (h *Handler) batchOp() huma.Operation {
	return huma.Operation{
		OperationID:  "sync-batch",
		Method:       http.MethodPost,
		Path:         "/sync/batch",
		Summary:      "Пакетная отправка изменений",
		Description:  "Применяет операции по порядку. Каждая операция независима, ответ всегда 200 со списком результатов",
		Tags:         []string{"sync"},
		Security:     []map[string][]string{{"bearer": {}}},
		MaxBodyBytes: h.maxBodyBytes,
		Middlewares:  h.middleware,
	}
}
