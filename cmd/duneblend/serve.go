package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anttttti/DuneBlend/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the blend builder API and web app",
	Long: `Serve exposes the configured store over HTTP: the JSON API used by the
blend builder, the raw blend files under /blends/, the resource catalog and
a websocket feed of changes at /api/events.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}

		// Servers never fall back to a local downloads folder.
		cfg.DownloadsDir = ""
		svc, err := openService()
		if err != nil {
			fatal("Error initializing store", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(svc, server.Config{
			Addr:       cfg.Addr,
			StaticDir:  cfg.StaticDir,
			CORSOrigin: cfg.CORSOrigin,
			Resources:  cfg.Resources,
			Logger:     slog.Default(),
		})
		if err := srv.Run(ctx); err != nil {
			fatal("Server error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}
