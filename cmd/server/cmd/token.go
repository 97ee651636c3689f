package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"reptisync/internal/domain/session"
	"reptisync/internal/domain/user"
	"reptisync/internal/infrastructure/storage"
)

var (
	tokenLogin    string
	tokenExisting bool
)

// tokenCmd выдает токен доступа. Без --existing пользователь создается, если его еще нет.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Выпустить токен доступа для пользователя",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, err := storage.Open(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer store.Close()

		users := user.NewService(store.Users(), nil, log)
		var u user.User
		if tokenExisting {
			u, err = users.Find(ctx, tokenLogin)
		} else {
			u, err = users.Ensure(ctx, tokenLogin)
		}
		if err != nil {
			return err
		}

		sessions, err := session.NewService(store.Sessions(), log, &session.Config{
			TokenTTL:  cfg.Auth.TokenTTL,
			CacheTTL:  cfg.Auth.CacheTTL,
			CacheSize: cfg.Auth.CacheSize,
		})
		if err != nil {
			return err
		}
		defer sessions.Close()

		token, err := sessions.Create(ctx, u.ID)
		if err != nil {
			return err
		}

		log.Info("token issued", slog.String("login", u.Login), slog.Int("user_id", u.ID))
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenLogin, "login", "", "логин пользователя")
	tokenCmd.Flags().BoolVar(&tokenExisting, "existing", false, "не создавать пользователя, если его нет")
	_ = tokenCmd.MarkFlagRequired("login")
}
