package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/bstardust/photo-atlas/internal/catalog"
	"github.com/bstardust/photo-atlas/internal/config"
	"github.com/bstardust/photo-atlas/internal/store"
	"github.com/bstardust/photo-atlas/internal/uploader"
	"github.com/bstardust/photo-atlas/pkg/s3client"
	"github.com/spf13/cobra"
)

func newPublishCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish [flags]",
		Short: "Upload the saved catalog and its previews to S3",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	d := config.New()

	cmd.Flags().StringP("output", "o", d.Output, "Catalog file to publish")
	cmd.Flags().String("preview-dir", d.Preview.Dir, "Directory holding the generated previews")

	// S3 connection flags
	cmd.Flags().String("endpoint", "", "S3 endpoint URL")
	cmd.Flags().String("region", d.S3.Region, "S3 region")
	cmd.Flags().String("bucket", "", "S3 bucket name")
	cmd.Flags().String("access-key", "", "S3 access key")
	cmd.Flags().String("secret-key", "", "S3 secret key")
	cmd.Flags().Bool("use-ssl", d.S3.UseSSL, "Use SSL for S3 connection")
	cmd.Flags().String("prefix", "", "Prefix for S3 object keys")

	// Upload options
	cmd.Flags().Int("upload-concurrency", d.Upload.Concurrency, "Number of concurrent uploads")
	cmd.Flags().Bool("dry-run", d.Upload.DryRun, "Simulate upload without actually uploading")
	cmd.Flags().Bool("skip-existing", d.Upload.SkipExisting, "Skip previews that already exist in the bucket")

	return cmd
}

func runPublish(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if err := cfg.ValidateS3(); err != nil {
		return err
	}

	st := store.New(cfg.Output)
	c, err := st.Load()
	if err != nil {
		return fmt.Errorf("failed to load catalog, run build first: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Upload.Timeout)
	defer cancel()

	s3Client, err := s3client.New(ctx, s3client.Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		Bucket:    cfg.S3.Bucket,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
		Prefix:    cfg.S3.Prefix,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	return publish(ctx, s3Client, cfg, st.Path(), c, out)
}

// publish uploads the catalog with its previews and prints where the
// catalog can be fetched
func publish(ctx context.Context, s3Client s3client.S3Interface, cfg *config.Config, catalogPath string, c catalog.Catalog, out io.Writer) error {
	retry := uploader.DefaultRetryConfig()
	retry.MaxRetries = cfg.Upload.MaxRetries

	up := uploader.New(ctx, s3Client, uploader.Options{
		Concurrency:  cfg.Upload.Concurrency,
		DryRun:       cfg.Upload.DryRun,
		SkipExisting: cfg.Upload.SkipExisting,
		Retry:        retry,
	})

	summary, err := up.Run(uploader.CatalogItems(catalogPath, cfg.Preview.Dir, c))
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Fprintf(out, "Published %d photos to bucket %s: %d uploaded, %d skipped\n",
		c.Len(), s3Client.GetBucketName(), summary.Completed, summary.Skipped)

	if cfg.Upload.DryRun {
		return nil
	}

	url, err := s3Client.GetPresignedURL(ctx, filepath.Base(catalogPath), cfg.Upload.PresignExpiry)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Catalog URL (valid for %s): %s\n", cfg.Upload.PresignExpiry, url)
	return nil
}
