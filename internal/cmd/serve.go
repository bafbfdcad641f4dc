package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/atikulmunna/syslens/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the filter API over HTTP",
	Long: `Start an HTTP server exposing:

  POST /api/filter    upload a log, zip or .zst file and download the filtered export
  POST /api/summary   upload a file and get its summary as JSON
  GET  /metrics       Prometheus metrics
  GET  /healthz       health check`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
			return err
		}
		return server.New(cfg, logger).Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Int64("max-upload-mb", 256, "largest accepted upload in MiB")
	cobra.CheckErr(viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr")))
	cobra.CheckErr(viper.BindPFlag("server.max_upload_mb", serveCmd.Flags().Lookup("max-upload-mb")))
}
