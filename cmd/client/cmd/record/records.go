package record

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// RecordCmd - родительская команда для всех операций с записями
var RecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Управление записями",
	Long: `Добавление, изменение, удаление и просмотр записей.

Таблицы: reptiles, feedings, sheds, weights, environmentLogs, photos.
Изменения сохраняются локально и уходят на сервер командой sync.`,
}

// parsePayload собирает поля записи из --json и повторяемых --set key=value.
// Значение --set разбирается как JSON (числа, true/false), иначе берется строкой.
func parsePayload(raw string, sets []string) (map[string]any, error) {
	payload := map[string]any{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return nil, fmt.Errorf("неверный JSON в --json: %w", err)
		}
	}

	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("ожидается key=value, получено %q", kv)
		}

		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err != nil {
			parsed = value
		}
		payload[key] = parsed
	}

	return payload, nil
}

func truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length-3]) + "..."
}
