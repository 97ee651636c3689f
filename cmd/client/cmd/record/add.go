package record

import (
	"fmt"

	"github.com/spf13/cobra"

	"reptisync/internal/app/client"
)

var (
	addTable string
	addJSON  string
	addSets  []string
)

var AddCmd = &cobra.Command{
	Use:   "add",
	Short: "Добавить запись",
	Long: `Добавление записи в локальный журнал.

Примеры:
  reptisync record add --table reptiles --set name=Monty --set species="Python regius"
  reptisync record add --table feedings --json '{"reptileId":"...","fedAt":"2024-05-01T10:00:00Z","preyType":"mouse"}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		payload, err := parsePayload(addJSON, addSets)
		if err != nil {
			return err
		}

		rec, err := app.AddRecord(cmd.Context(), addTable, payload)
		if err != nil {
			return fmt.Errorf("ошибка создания записи: %w", err)
		}

		fmt.Printf("✅ Запись '%s' добавлена в %s\n", rec.Title(), rec.Table)
		fmt.Printf("ID: %s\n", rec.ID)
		return nil
	},
}

func init() {
	AddCmd.Flags().StringVarP(&addTable, "table", "t", "", "таблица (reptiles, feedings, sheds, weights, environmentLogs, photos)")
	AddCmd.Flags().StringVar(&addJSON, "json", "", "поля записи в формате JSON")
	AddCmd.Flags().StringArrayVar(&addSets, "set", nil, "поле записи key=value, можно повторять")
	_ = AddCmd.MarkFlagRequired("table")
}
