package record

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"reptisync/internal/app/client"
)

const timeLayout = "2006-01-02 15:04"

var (
	listTable   string
	listFormat  string
	showDeleted bool
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список записей",
	Long: `Просмотр локальных записей с фильтром по таблице.

Записи с пометкой * еще не отправлены на сервер.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		records, err := app.ListRecords(cmd.Context(), listTable, showDeleted)
		if err != nil {
			return fmt.Errorf("ошибка получения списка записей: %w", err)
		}

		if listFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}
		if len(records) == 0 {
			fmt.Println("Записи не найдены")
			return nil
		}
		if listFormat == "table" {
			return printTable(records)
		}
		printSimple(records)
		return nil
	},
}

// mark ✓ активна, ✗ удалена, * ждет отправки
func mark(rec *client.LocalRecord) string {
	m := "✓"
	if rec.Deleted {
		m = "✗"
	}
	if rec.Pending {
		m += "*"
	}
	return m
}

func printSimple(records []*client.LocalRecord) {
	fmt.Printf("Найдено записей: %d\n\n", len(records))
	for i, rec := range records {
		fmt.Printf("%d. [%s] %s (%s)\n", i+1, mark(rec), rec.Title(), rec.Table)
		fmt.Printf("   ID: %s | Обновлено: %s\n\n", rec.ID, rec.UpdatedAt.Local().Format(timeLayout))
	}
}

func printTable(records []*client.LocalRecord) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tТАБЛИЦА\tНАЗВАНИЕ\tОБНОВЛЕНО")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			mark(rec), rec.ID, rec.Table, truncate(rec.Title(), 30), rec.UpdatedAt.Local().Format(timeLayout))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nВсего записей: %d\n", len(records))
	return nil
}

func init() {
	ListCmd.Flags().StringVarP(&listTable, "table", "t", "", "фильтр по таблице")
	ListCmd.Flags().StringVarP(&listFormat, "format", "f", "simple", "формат вывода (simple, table, json)")
	ListCmd.Flags().BoolVar(&showDeleted, "deleted", false, "показывать удаленные записи")
}
