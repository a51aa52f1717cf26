package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/bstardust/photo-atlas/internal/config"
	"github.com/bstardust/photo-atlas/internal/logger"
	"github.com/bstardust/photo-atlas/internal/storage"
	"github.com/bstardust/photo-atlas/pkg/common"
	"github.com/bstardust/photo-atlas/pkg/models"
	"github.com/spf13/cobra"
)

func newNearCommand(cfg *config.Config) *cobra.Command {
	var lat, lng float32
	var radius int

	cmd := &cobra.Command{
		Use:   "near --lat <deg> --lng <deg> [flags]",
		Short: "List photos saved to MongoDB that were taken near a point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNear(cmd.Context(), cfg.Mongo, models.Location{Lat: lat, Lng: lng}, radius, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Float32Var(&lat, "lat", 0, "Latitude in decimal degrees")
	cmd.Flags().Float32Var(&lng, "lng", 0, "Longitude in decimal degrees")
	cmd.Flags().IntVar(&radius, "radius", 10000, "Search radius in meters")
	cmd.Flags().String("mongo-uri", "", "MongoDB holding a catalog saved by build")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")

	return cmd
}

func runNear(ctx context.Context, cfg config.MongoConfig, loc models.Location, radius int, out io.Writer) error {
	if cfg.URI == "" {
		return common.NewConfigError("mongo.uri is required", nil)
	}
	if radius <= 0 {
		return common.NewConfigError(fmt.Sprintf("radius must be positive, got %d", radius), nil)
	}

	db := &storage.MongoPhotoDB{}
	if err := db.Connect(ctx, cfg.URI, cfg.Database, cfg.Collection); err != nil {
		return err
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			logger.Warn("%v", err)
		}
	}()

	paths, err := db.NearPhotos(ctx, loc, radius)
	if err != nil {
		return err
	}

	for _, p := range paths {
		fmt.Fprintln(out, p)
	}
	return nil
}
