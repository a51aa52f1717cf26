package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/bstardust/photo-atlas/internal/utils"
	"github.com/bstardust/photo-atlas/pkg/common"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "PHOTO_ATLAS"

// Config represents the application configuration
type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	Photos   PhotosConfig  `mapstructure:"photos"`
	Preview  PreviewConfig `mapstructure:"preview"`
	Output   string        `mapstructure:"output"`
	Server   ServerConfig  `mapstructure:"server"`
	S3       S3Config      `mapstructure:"s3"`
	Upload   UploadConfig  `mapstructure:"upload"`
	Mongo    MongoConfig   `mapstructure:"mongo"`
}

// PhotosConfig controls discovery and extraction
type PhotosConfig struct {
	Sources     []string      `mapstructure:"sources"`
	Countries   string        `mapstructure:"countries"`
	StrictDates bool          `mapstructure:"strict_dates"`
	Concurrency int           `mapstructure:"concurrency"`
	FileTimeout time.Duration `mapstructure:"file_timeout"`
	Memoize     bool          `mapstructure:"memoize"`
}

// PreviewConfig controls preview generation
type PreviewConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Dir       string `mapstructure:"dir"`
	MaxWidth  int    `mapstructure:"max_width"`
	MaxHeight int    `mapstructure:"max_height"`
	Quality   int    `mapstructure:"quality"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	CORS           bool          `mapstructure:"cors"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// S3Config represents S3 connection configuration
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Prefix    string `mapstructure:"prefix"`
}

// UploadConfig represents upload configuration
type UploadConfig struct {
	Concurrency   int           `mapstructure:"concurrency"`
	DryRun        bool          `mapstructure:"dry_run"`
	SkipExisting  bool          `mapstructure:"skip_existing"`
	MaxRetries    int           `mapstructure:"max_retries"`
	Timeout       time.Duration `mapstructure:"timeout"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// MongoConfig represents the optional MongoDB catalog sink
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// New creates a new configuration with default values
func New() *Config {
	return &Config{
		LogLevel: "info",
		Photos: PhotosConfig{
			Concurrency: 4,
			FileTimeout: 30 * time.Second,
			Memoize:     true,
		},
		Preview: PreviewConfig{
			Dir:       "previews",
			MaxWidth:  640,
			MaxHeight: 640,
			Quality:   80,
		},
		Output: "catalog.json",
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 2 * time.Minute,
		},
		S3: S3Config{
			Region: "us-east-1",
			UseSSL: true,
		},
		Upload: UploadConfig{
			Concurrency:   4,
			SkipExisting:  true,
			MaxRetries:    5,
			Timeout:       30 * time.Minute,
			PresignExpiry: 24 * time.Hour,
		},
		Mongo: MongoConfig{
			Database:   "photo_atlas",
			Collection: "photos",
		},
	}
}

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"log-level":          "log_level",
	"countries":          "photos.countries",
	"strict-dates":       "photos.strict_dates",
	"concurrency":        "photos.concurrency",
	"file-timeout":       "photos.file_timeout",
	"memoize":            "photos.memoize",
	"previews":           "preview.enabled",
	"preview-dir":        "preview.dir",
	"output":             "output",
	"addr":               "server.addr",
	"cors":               "server.cors",
	"request-timeout":    "server.request_timeout",
	"endpoint":           "s3.endpoint",
	"region":             "s3.region",
	"bucket":             "s3.bucket",
	"access-key":         "s3.access_key",
	"secret-key":         "s3.secret_key",
	"use-ssl":            "s3.use_ssl",
	"prefix":             "s3.prefix",
	"upload-concurrency": "upload.concurrency",
	"dry-run":            "upload.dry_run",
	"skip-existing":      "upload.skip_existing",
	"mongo-uri":          "mongo.uri",
}

func setDefaults(v *viper.Viper) {
	d := New()

	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("photos.sources", []string{})
	v.SetDefault("photos.countries", d.Photos.Countries)
	v.SetDefault("photos.strict_dates", d.Photos.StrictDates)
	v.SetDefault("photos.concurrency", d.Photos.Concurrency)
	v.SetDefault("photos.file_timeout", d.Photos.FileTimeout)
	v.SetDefault("photos.memoize", d.Photos.Memoize)

	v.SetDefault("preview.enabled", d.Preview.Enabled)
	v.SetDefault("preview.dir", d.Preview.Dir)
	v.SetDefault("preview.max_width", d.Preview.MaxWidth)
	v.SetDefault("preview.max_height", d.Preview.MaxHeight)
	v.SetDefault("preview.quality", d.Preview.Quality)

	v.SetDefault("output", d.Output)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.cors", d.Server.CORS)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)

	v.SetDefault("s3.endpoint", d.S3.Endpoint)
	v.SetDefault("s3.region", d.S3.Region)
	v.SetDefault("s3.bucket", d.S3.Bucket)
	v.SetDefault("s3.access_key", d.S3.AccessKey)
	v.SetDefault("s3.secret_key", d.S3.SecretKey)
	v.SetDefault("s3.use_ssl", d.S3.UseSSL)
	v.SetDefault("s3.prefix", d.S3.Prefix)

	v.SetDefault("upload.concurrency", d.Upload.Concurrency)
	v.SetDefault("upload.dry_run", d.Upload.DryRun)
	v.SetDefault("upload.skip_existing", d.Upload.SkipExisting)
	v.SetDefault("upload.max_retries", d.Upload.MaxRetries)
	v.SetDefault("upload.timeout", d.Upload.Timeout)
	v.SetDefault("upload.presign_expiry", d.Upload.PresignExpiry)

	v.SetDefault("mongo.uri", d.Mongo.URI)
	v.SetDefault("mongo.database", d.Mongo.Database)
	v.SetDefault("mongo.collection", d.Mongo.Collection)
}

// Options locates the configuration sources for Load
type Options struct {
	// ConfigFile is an optional config file in any format viper reads
	ConfigFile string
	// EnvFile is an optional dotenv file; a missing file is ignored
	EnvFile string
	// Flags are the parsed command line flags; only changed flags override
	Flags *pflag.FlagSet
}

// Load layers defaults, the config file, the dotenv file, the environment
// and the command line flags, in increasing order of precedence.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, common.NewConfigError(fmt.Sprintf("failed to read config file %s", opts.ConfigFile), err)
		}
	}

	if opts.EnvFile != "" {
		// godotenv never overrides variables already set in the environment
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, common.NewConfigError(fmt.Sprintf("failed to read env file %s", opts.EnvFile), err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, common.NewConfigError(fmt.Sprintf("failed to bind flag --%s", name), err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, common.NewConfigError("failed to decode configuration", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run
func (c *Config) Validate() error {
	if c.Photos.Concurrency < 1 {
		return common.NewConfigError(fmt.Sprintf("photos.concurrency must be at least 1, got %d", c.Photos.Concurrency), nil)
	}
	if c.Photos.FileTimeout < 0 {
		return common.NewConfigError("photos.file_timeout must not be negative", nil)
	}
	if c.Preview.Enabled && (c.Preview.MaxWidth <= 0 || c.Preview.MaxHeight <= 0) {
		return common.NewConfigError(fmt.Sprintf("invalid preview bounds %dx%d", c.Preview.MaxWidth, c.Preview.MaxHeight), nil)
	}
	if err := utils.ValidateListenAddr(c.Server.Addr); err != nil {
		return common.NewConfigError("invalid server.addr", err)
	}
	if c.Upload.Concurrency < 1 {
		return common.NewConfigError(fmt.Sprintf("upload.concurrency must be at least 1, got %d", c.Upload.Concurrency), nil)
	}
	return nil
}

// ValidateS3 checks the settings needed to publish
func (c *Config) ValidateS3() error {
	if c.S3.Endpoint == "" || c.S3.AccessKey == "" || c.S3.SecretKey == "" {
		return common.NewConfigError("s3.endpoint, s3.access_key and s3.secret_key are required", nil)
	}
	if err := utils.ValidateS3BucketName(c.S3.Bucket); err != nil {
		return common.NewConfigError("invalid s3.bucket", err)
	}
	return nil
}
