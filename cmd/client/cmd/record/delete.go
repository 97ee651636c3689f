package record

import (
	"fmt"

	"github.com/spf13/cobra"

	"reptisync/internal/app/client"
)

var deleteTable string

var DeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Удалить запись",
	Long:  `Запись помечается удаленной локально, на сервере она удаляется при следующем sync.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		if err := app.DeleteRecord(cmd.Context(), deleteTable, args[0]); err != nil {
			return fmt.Errorf("ошибка удаления записи: %w", err)
		}

		fmt.Println("✅ Запись удалена")
		return nil
	},
}

func init() {
	DeleteCmd.Flags().StringVarP(&deleteTable, "table", "t", "", "таблица записи")
	_ = DeleteCmd.MarkFlagRequired("table")
}
