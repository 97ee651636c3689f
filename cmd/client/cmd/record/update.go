package record

import (
	"fmt"

	"github.com/spf13/cobra"

	"reptisync/internal/app/client"
)

var (
	updateTable string
	updateJSON  string
	updateSets  []string
)

var UpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Изменить запись",
	Long: `Изменение полей записи. Указанные поля заменяются, остальные остаются прежними.

Пример:
  reptisync record update 2f1c... --table reptiles --set name="Monty II"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		payload, err := parsePayload(updateJSON, updateSets)
		if err != nil {
			return err
		}

		rec, err := app.UpdateRecord(cmd.Context(), updateTable, args[0], payload)
		if err != nil {
			return fmt.Errorf("ошибка изменения записи: %w", err)
		}

		fmt.Printf("✅ Запись '%s' изменена\n", rec.Title())
		return nil
	},
}

func init() {
	UpdateCmd.Flags().StringVarP(&updateTable, "table", "t", "", "таблица записи")
	UpdateCmd.Flags().StringVar(&updateJSON, "json", "", "изменяемые поля в формате JSON")
	UpdateCmd.Flags().StringArrayVar(&updateSets, "set", nil, "поле записи key=value, можно повторять")
	_ = UpdateCmd.MarkFlagRequired("table")
}
