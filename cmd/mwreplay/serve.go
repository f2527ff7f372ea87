package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/mwproto/internal/config"
	"github.com/danmuck/mwproto/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		cfgPath string
		addr    string
		dir     string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve replay listings, summaries and frames over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultServerConfig()
			if cfgPath != "" {
				loaded, err := config.LoadServerConfig(cfgPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if dir != "" {
				cfg.ReplayDir = dir
			}
			if err := config.ValidateServerConfig(cfg); err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(cfg).Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "server config TOML (see configgen -kind server)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address override")
	cmd.Flags().StringVar(&dir, "dir", "", "replay directory override")
	return cmd
}
