package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reptisync/internal/infrastructure/migration"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down N|version]",
	Short: "Миграции базы данных",
	Long: `Без аргументов или с up применяет новые миграции.
down N откатывает N последних миграций, version печатает текущую версию схемы.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		mg := migration.NewMigration(cfg, nil)
		source, err := mg.SourceURL()
		if err != nil {
			return err
		}

		action := "up"
		if len(args) > 0 {
			action = args[0]
		}

		switch action {
		case "up":
			if err := mg.Up(); err != nil {
				return err
			}
			log.Info("migrations applied", "source", source)

		case "down":
			steps := 1
			if len(args) == 2 {
				if steps, err = strconv.Atoi(args[1]); err != nil {
					return fmt.Errorf("неверное число шагов %q", args[1])
				}
			}
			if err := mg.Rollback(steps); err != nil {
				return err
			}
			log.Info("migrations rolled back", "source", source, "steps", steps)

		case "version":
			version, dirty, err := mg.Version()
			if err != nil {
				return err
			}
			fmt.Printf("version: %d dirty: %v\n", version, dirty)

		default:
			return fmt.Errorf("неизвестное действие %q, ожидается up, down или version", action)
		}
		return nil
	},
}
