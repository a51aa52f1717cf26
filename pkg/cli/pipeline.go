package cli

import (
	"fmt"

	"github.com/bstardust/photo-atlas/internal/config"
	"github.com/bstardust/photo-atlas/internal/geo"
	"github.com/bstardust/photo-atlas/internal/logger"
	"github.com/bstardust/photo-atlas/internal/metadata"
	"github.com/bstardust/photo-atlas/internal/pipeline"
	"github.com/bstardust/photo-atlas/internal/preview"
	"github.com/bstardust/photo-atlas/pkg/common"
	"github.com/spf13/pflag"
)

// addPhotoFlags registers the flags shared by the commands that run the pipeline
func addPhotoFlags(flags *pflag.FlagSet) {
	d := config.New()

	flags.String("countries", "", "Reference country list (.json or .csv); the built-in list when empty")
	flags.Bool("strict-dates", d.Photos.StrictDates, "Treat photos without a valid capture date as failures")
	flags.Int("concurrency", d.Photos.Concurrency, "Number of photos processed at once")
	flags.Duration("file-timeout", d.Photos.FileTimeout, "Time limit for processing one photo (0 disables)")
	flags.Bool("memoize", d.Photos.Memoize, "Cache country lookups per coordinate")
	flags.Bool("previews", d.Preview.Enabled, "Generate downsized JPEG previews")
	flags.String("preview-dir", d.Preview.Dir, "Directory for generated previews")
}

// photoSources returns the command arguments, or the configured sources when none are given
func photoSources(cfg *config.Config, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(cfg.Photos.Sources) > 0 {
		return cfg.Photos.Sources, nil
	}
	return nil, common.NewConfigError("no photo sources given; pass paths or set photos.sources", nil)
}

// newPipeline builds the pipeline from the configuration. Reference list
// and preview errors are returned before any photo is read.
func newPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	countries, err := geo.LoadCountries(cfg.Photos.Countries)
	if err != nil {
		return nil, err
	}

	var opts []geo.Option
	if cfg.Photos.Memoize {
		opts = append(opts, geo.WithMemo())
	}
	resolver, err := geo.NewResolver(countries, opts...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded %d reference countries", resolver.Len())

	policy := metadata.DatePermissive
	if cfg.Photos.StrictDates {
		policy = metadata.DateStrict
	}

	var previews *preview.Generator
	if cfg.Preview.Enabled {
		previews, err = preview.New(preview.Config{
			Dir:       cfg.Preview.Dir,
			MaxWidth:  cfg.Preview.MaxWidth,
			MaxHeight: cfg.Preview.MaxHeight,
			Quality:   cfg.Preview.Quality,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to set up previews: %w", err)
		}
	}

	return pipeline.New(metadata.NewExtractor(policy), resolver, previews, pipeline.Options{
		Concurrency: cfg.Photos.Concurrency,
		FileTimeout: cfg.Photos.FileTimeout,
	}), nil
}
