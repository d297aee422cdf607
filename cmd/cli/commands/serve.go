package commands

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/typeWolffo/zpi-wsiz/pkg/server"
)

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	var addr string
	var debug bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.Cfg.HTTP.Addr
			}
			if !debug {
				gin.SetMode(gin.ReleaseMode)
			}

			srv := server.New(server.Options{
				Store:     app.Database,
				Projector: app.Projector,
				Notifier:  app.Notifier,
				Config:    app.Cfg,
				Location:  app.Location,
				Logger:    app.Logger,
				Now:       app.Now,
			})
			return srv.Run(app.Ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to http.addr from the config)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Run gin in debug mode")

	return cmd
}
