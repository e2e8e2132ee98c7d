package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	authmodels "github.com/brizzai/oauth-login/internal/auth/models"
	"github.com/brizzai/oauth-login/internal/config"
	"github.com/brizzai/oauth-login/internal/store"
	"github.com/brizzai/oauth-login/internal/store/factory"
	"github.com/brizzai/oauth-login/internal/tui"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect the local users created by logins",
	}

	var output string
	list := &cobra.Command{
		Use:   "list",
		Short: "Print every user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, _ *config.Config, users store.UserStore) error {
				all, err := users.List(ctx)
				if err != nil {
					return err
				}
				return printUsers(os.Stdout, output, all)
			})
		},
	}
	list.Flags().StringVarP(&output, "output", "o", outputTable, "Output format (table|json|yaml)")

	browse := &cobra.Command{
		Use:   "browse",
		Short: "Browse and export users in an interactive terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, cfg *config.Config, users store.UserStore) error {
				model, err := tui.LoadAppModel(ctx, cfg.Provider.Name, users)
				if err != nil {
					return err
				}
				m, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
				if err != nil {
					return fmt.Errorf("error running program: %w", err)
				}
				if final := m.(tui.AppModel); final.IsFinished() {
					pterm.Info.Printfln("Exported %s users.", pterm.LightGreen(len(final.ExportedUsers())))
				}
				return nil
			})
		},
	}

	cmd.AddCommand(list, browse)
	return cmd
}

func withStore(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, users store.UserStore) error) error {
	cfg, err := config.LoadStore(cmd.Flags())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	users, err := factory.New(ctx, &cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := users.Close(); err != nil {
			pterm.Warning.Printfln("failed to close user store: %v", err)
		}
	}()
	return fn(ctx, cfg, users)
}

func printUsers(w io.Writer, output string, users []*authmodels.LocalUser) error {
	switch output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(users)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(map[string]any{"users": users})
	case outputTable, "":
		data := pterm.TableData{{"ID", "Email", "Username", "Provider ID", "Created"}}
		for _, u := range users {
			data = append(data, []string{u.ID, u.Email, u.Username, u.ProviderUserID, u.CreatedAt.Local().Format(time.DateTime)})
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\nTotal: %d\n", table, len(users))
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", output)
	}
}
