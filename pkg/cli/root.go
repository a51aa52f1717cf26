// pkg/cli/root.go
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bstardust/photo-atlas/internal/config"
	"github.com/bstardust/photo-atlas/internal/logger"
	"github.com/spf13/cobra"
)

func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interruption signals
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		logger.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		logger.Error("Error executing command: %v", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func newRootCommand() *cobra.Command {
	cfg := config.New()
	var configFile, envFile string

	rootCmd := &cobra.Command{
		Use:   "photo-atlas",
		Short: "Catalog photos by country and year from their EXIF metadata",
		Long: `Reads the EXIF capture date and GPS position of every photo in a set of
directories or zip archives, resolves the nearest country and groups the
photos by country and year. The catalog can be written to disk, served
over HTTP, mirrored to MongoDB and published to S3-compatible storage.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(config.Options{
				ConfigFile: configFile,
				EnvFile:    envFile,
				Flags:      cmd.Flags(),
			})
			if err != nil {
				return err
			}
			*cfg = *loaded

			logger.SetLevel(cfg.LogLevel)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file with PHOTO_ATLAS_* variables")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	// Add commands
	rootCmd.AddCommand(
		newBuildCommand(cfg),
		newServeCommand(cfg),
		newDumpCommand(),
		newPublishCommand(cfg),
		newNearCommand(cfg),
	)

	return rootCmd
}
