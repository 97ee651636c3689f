package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reptisync/cmd/client/cmd/record"
	"reptisync/cmd/client/cmd/sync"
	"reptisync/internal/app/client"
	"reptisync/internal/app/client/config"
	"reptisync/internal/utils/logger"
)

var (
	cfgFile   string
	serverURL string
	debug     bool
	app       *client.App
)

var rootCmd = &cobra.Command{
	Use:   "reptisync",
	Short: "Reptisync - журнал содержания рептилий с синхронизацией",
	Long: `Reptisync ведет записи о питомцах, кормлениях, линьках, взвешиваниях,
условиях содержания и фото. Изменения сохраняются локально и работают без сети,
а команда sync отправляет их на сервер и забирает изменения с других устройств.`,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: closeApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Флаги командной строки важнее файла
	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}

	log := logger.NewWithLevel(cfg.Env, level)

	app, err = client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}

	cmd.SetContext(client.WithApp(cmd.Context(), app))
	return nil
}

func closeApp(_ *cobra.Command, _ []string) error {
	if app == nil {
		return nil
	}
	return app.Close()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "конфигурационный файл (по умолчанию ~/.reptisync/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "адрес сервера Reptisync (host:port)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "включить отладочный режим")

	rootCmd.AddCommand(initCmd)

	rootCmd.AddCommand(record.RecordCmd)
	record.RecordCmd.AddCommand(record.AddCmd)
	record.RecordCmd.AddCommand(record.UpdateCmd)
	record.RecordCmd.AddCommand(record.DeleteCmd)
	record.RecordCmd.AddCommand(record.ListCmd)

	rootCmd.AddCommand(sync.SyncCmd)
	rootCmd.AddCommand(sync.PushCmd)
	rootCmd.AddCommand(sync.PullCmd)
	rootCmd.AddCommand(sync.StatusCmd)
}
