package sync

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"reptisync/internal/app/client"
	"reptisync/internal/domain/entity"
)

const maxShownErrors = 3

var (
	warn = color.New(color.FgYellow)
	fail = color.New(color.FgRed)
)

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Синхронизировать с сервером",
	Long: `Отправляет локальные изменения на сервер, затем забирает изменения
с других устройств.

При конфликте побеждает более позднее изменение. Если сервер хранит более
свежую версию, локальная копия заменяется серверной.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("=== Синхронизация данных ===")
		result, err := app.Sync(cmd.Context())
		if err != nil {
			return syncError(err)
		}

		fmt.Println()
		fmt.Println("✅ Синхронизация завершена!")
		fmt.Printf("Время выполнения: %v\n", result.Duration.Round(time.Millisecond))
		printPush(&result.Push)
		printPull(&result.Pull)
		return nil
	},
}

var PushCmd = &cobra.Command{
	Use:   "push",
	Short: "Отправить локальные изменения",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		report, err := app.Push(cmd.Context())
		if err != nil {
			return syncError(err)
		}
		printPush(report)
		return nil
	},
}

var PullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Получить изменения с сервера",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		report, err := app.Pull(cmd.Context())
		if err != nil {
			return syncError(err)
		}
		printPull(report)
		return nil
	},
}

var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Статус синхронизации",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		status, err := app.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка получения статуса: %w", err)
		}

		fmt.Println("=== Статус синхронизации ===")
		fmt.Printf("Сервер: %s\n", app.Config().BaseURL())

		fmt.Println("\n📊 Локальные записи:")
		for _, table := range entity.Tables() {
			fmt.Printf("  %-16s %d\n", table, status.Records[table])
		}

		fmt.Printf("\nОжидают отправки: %d\n", status.Pending)
		if status.Checkpoint.Unix() == 0 {
			fmt.Println("Последнее получение: никогда")
		} else {
			fmt.Printf("Последнее получение: %s\n", status.Checkpoint.Local().Format("2006-01-02 15:04:05"))
		}

		if len(status.Failed) > 0 {
			warn.Printf("\n⚠️  Отклонены сервером: %d\n", len(status.Failed))
			for _, op := range status.Failed {
				fmt.Printf("  • %s %s/%s (попыток: %d): %s\n",
					op.Operation, op.Table, op.RecordID, op.Attempts, op.LastError)
			}
		}

		fmt.Printf("\n🌐 Соединение с сервером: ")
		if err := app.CheckConnection(cmd.Context()); err != nil {
			fail.Printf("❌ %v\n", err)
		} else {
			fmt.Println("✅ OK")
		}
		return nil
	},
}

func printPush(r *client.PushReport) {
	fmt.Printf("Отправлено на сервер: %d (принято: %d)\n", r.Sent, r.Applied)

	if r.Conflicts > 0 {
		warn.Printf("Конфликтов: %d, приняты серверные версии\n", r.Conflicts)
	}

	if r.Failed > 0 {
		fail.Printf("Отклонено сервером: %d\n", r.Failed)
		for i, msg := range r.Errors {
			if i == maxShownErrors {
				fmt.Printf("  ... и еще %d ошибок\n", len(r.Errors)-maxShownErrors)
				break
			}
			fmt.Printf("  • %s\n", msg)
		}
		fmt.Println("Отклоненные изменения остаются в очереди, см. reptisync status")
	}
}

func printPull(r *client.PullReport) {
	fmt.Printf("Получено с сервера: %d (применено: %d)\n", r.Received, r.Applied)
	if r.Skipped > 0 {
		fmt.Printf("Пропущено из-за неотправленных изменений: %d\n", r.Skipped)
	}
}

func syncError(err error) error {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrNotInitialized), errors.Is(err, client.ErrSyncInProgress):
		return err
	case errors.As(err, &apiErr) && apiErr.Code == "UNAUTHORIZED":
		return fmt.Errorf("токен не принят сервером, выполните: reptisync init --token <токен>")
	default:
		return fmt.Errorf("ошибка синхронизации: %w", err)
	}
}
