package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	initServer string
	initToken  string
	initTLS    bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Настроить подключение к серверу",
	Long: `Команда init сохраняет адрес сервера и токен доступа в файл конфигурации
и проверяет соединение с сервером.

Токен выдает администратор сервера командой: reptisync-server token --login <имя>.
Если токен не передан флагом, он запрашивается без отображения на экране.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if app.IsInitialized() && initToken == "" {
			fmt.Println("Клиент уже настроен. Чтобы сменить токен, передайте --token.")
			return nil
		}

		fmt.Println("=== Настройка Reptisync ===")
		fmt.Println()

		server := initServer
		if server == "" {
			server = app.Config().ServerAddress
			fmt.Printf("Адрес сервера [%s]: ", server)
			reader := bufio.NewReader(os.Stdin)
			line, _ := reader.ReadString('\n')
			if line = strings.TrimSpace(line); line != "" {
				server = line
			}
		}

		token := initToken
		if token == "" {
			fmt.Print("Токен доступа: ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			if err != nil {
				return fmt.Errorf("ошибка чтения токена: %w", err)
			}
			fmt.Println()
			token = strings.TrimSpace(string(raw))
		}

		if err := app.Init(server, token, initTLS); err != nil {
			return fmt.Errorf("ошибка сохранения настроек: %w", err)
		}
		fmt.Printf("Настройки сохранены в %s\n", app.Config().File())

		fmt.Println("Проверка соединения с сервером...")
		if err := app.CheckConnection(cmd.Context()); err != nil {
			fmt.Printf("⚠️  Не удалось подключиться к серверу: %v\n", err)
			fmt.Println("Записи можно вести офлайн, они уйдут на сервер при следующем sync.")
		} else {
			fmt.Println("✓ Соединение с сервером установлено")
		}

		fmt.Println()
		fmt.Println("Что дальше:")
		fmt.Println("1. Добавьте питомца: reptisync record add --table reptiles --set name=Monty --set species=\"Python regius\"")
		fmt.Println("2. Синхронизируйте: reptisync sync")
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initServer, "address", "", "адрес сервера (host:port)")
	initCmd.Flags().StringVar(&initToken, "token", "", "токен доступа")
	initCmd.Flags().BoolVar(&initTLS, "tls", false, "подключаться по HTTPS")
}
