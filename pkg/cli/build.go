package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bstardust/photo-atlas/internal/catalog"
	"github.com/bstardust/photo-atlas/internal/config"
	"github.com/bstardust/photo-atlas/internal/logger"
	"github.com/bstardust/photo-atlas/internal/storage"
	"github.com/bstardust/photo-atlas/internal/store"
	"github.com/spf13/cobra"
)

func newBuildCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [flags] [<dir> | <archive.zip> | <glob>]...",
		Short: "Build the catalog and write it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), cfg, args, cmd.OutOrStdout())
		},
	}

	addPhotoFlags(cmd.Flags())
	cmd.Flags().StringP("output", "o", cfg.Output, "Catalog output file")
	cmd.Flags().String("mongo-uri", "", "Also save the catalog to this MongoDB")

	return cmd
}

func runBuild(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	paths, err := photoSources(cfg, args)
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	result, err := p.BuildCatalog(ctx, paths)
	if err != nil {
		return fmt.Errorf("failed to build catalog: %w", err)
	}

	st := store.New(cfg.Output)
	if err := st.Save(result.Catalog); err != nil {
		return err
	}

	if cfg.Mongo.URI != "" {
		if err := saveToMongo(ctx, cfg.Mongo, result.Catalog); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Wrote %d photos in %d groups to %s (%d without country or date, %d failed) in %s\n",
		result.Catalog.Len(), len(result.Catalog), st.Path(), result.Skipped, len(result.Failures), result.Duration.Round(time.Millisecond))
	return nil
}

func saveToMongo(ctx context.Context, cfg config.MongoConfig, c catalog.Catalog) error {
	db := &storage.MongoPhotoDB{}
	if err := db.Connect(ctx, cfg.URI, cfg.Database, cfg.Collection); err != nil {
		return err
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			logger.Warn("%v", err)
		}
	}()

	if err := db.EnsureIndexes(ctx); err != nil {
		return err
	}
	_, err := db.SaveCatalog(ctx, c)
	return err
}
