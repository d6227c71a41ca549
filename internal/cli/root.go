// Package cli - консольный клиент доски: те же действия, что у веб-интерфейса, через session.Session.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"scheduleBoard/internal/config"
	"scheduleBoard/internal/rpc"
	"scheduleBoard/internal/session"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type App struct {
	ConfigPath string
	Endpoint   string
	Email      string
	Timeout    time.Duration
	JSON       bool

	stderr io.Writer
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "schedulectl",
		Short:        "Консольный клиент доски расписания",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  schedulectl tasks list --channel YouTube
  schedulectl tasks move 3f0c... 2024-06-05 2024-06-07
  schedulectl releases set YouTube 12 2024-06-20
`),
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "путь к config.yml")
	cmd.PersistentFlags().StringVar(&app.Endpoint, "endpoint", "", "адрес /rpc (по умолчанию rpc.endpoint из конфига)")
	cmd.PersistentFlags().StringVar(&app.Email, "email", "", "почта пользователя (по умолчанию rpc.email)")
	cmd.PersistentFlags().DurationVar(&app.Timeout, "timeout", 0, "таймаут запроса")
	cmd.PersistentFlags().BoolVar(&app.JSON, "json", false, "вывод в JSON")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		app.stderr = cmd.ErrOrStderr()

		cfg, err := config.Load(app.ConfigPath)
		if err != nil {
			return err
		}
		if app.Endpoint == "" {
			app.Endpoint = cfg.RPC.Endpoint
		}
		if app.Email == "" {
			app.Email = cfg.RPC.Email
		}
		if app.Timeout == 0 {
			app.Timeout = cfg.RPC.Timeout
		}
		return nil
	}

	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newReleasesCmd(app))
	return cmd
}

// Notify печатает уведомления сессии в stderr
func (app *App) Notify(kind session.NoticeKind, message string) {
	fmt.Fprintf(app.stderr, "[%s] %s\n", kind, message)
}

// open - загруженная сессия поверх HTTP
func (app *App) open(ctx context.Context) (*session.Session, error) {
	transport := rpc.NewHTTPTransport(app.Endpoint, rpc.WithUser(app.Email), rpc.WithTimeout(app.Timeout))
	s := session.New(rpc.NewClient(transport), session.WithNotifier(app))
	if err := s.Load(ctx); err != nil {
		return nil, fmt.Errorf("загрузка данных: %w", err)
	}
	return s, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Почта и роль текущего пользователя",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context())
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(cmd, map[string]any{"email": s.Email(), "role": s.Role()})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", s.Email(), s.Role())
			return nil
		},
	}
}
