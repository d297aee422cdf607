package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/typeWolffo/zpi-wsiz/internal/config"
	"github.com/typeWolffo/zpi-wsiz/pkg/clients/sheetsclient"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/services"
	"github.com/typeWolffo/zpi-wsiz/pkg/utils"
)

// PublishCmd creates the publish command
func PublishCmd(app *AppContext) *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a day's board to the schedule sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.day(day)
			if err != nil {
				return err
			}

			app.Logger.Info("Loading OAuth client configuration")
			oauthCfg, err := config.LoadOAuthClientWithEnv(app.Env)
			if err != nil {
				return fmt.Errorf("failed to load OAuth client config: %w", err)
			}
			tokens, err := utils.DefaultTokenStore()
			if err != nil {
				return err
			}

			app.Logger.Info("Initializing sheets client")
			sheets, err := sheetsclient.NewClient(app.Ctx, oauthCfg, app.Env, tokens, app.Logger)
			if err != nil {
				return fmt.Errorf("failed to create sheets client: %w", err)
			}

			published, err := services.PublishDay(app.Ctx, app.Database, sheets, app.Projector, app.Cfg, app.Logger, d)
			if err != nil {
				return err
			}

			app.Logger.Debug("publish command finished", zap.Int("rows", len(published.Rows)))
			fmt.Fprintf(app.Out, "\n%s Published %d appointment(s) to tab %q\n\n",
				color.New(color.FgGreen).Sprint("✓"), len(published.Rows), sheetsclient.TabTitle(d))
			return nil
		},
	}

	cmd.Flags().StringVarP(&day, "day", "d", "", "Day to publish (YYYY-MM-DD, defaults to the next working day)")

	return cmd
}
