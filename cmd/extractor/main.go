package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/shard-legends/crafting-source-service/internal/adapters"
	"github.com/shard-legends/crafting-source-service/internal/config"
	"github.com/shard-legends/crafting-source-service/internal/database"
	"github.com/shard-legends/crafting-source-service/internal/models"
	"github.com/shard-legends/crafting-source-service/internal/service"
	"github.com/shard-legends/crafting-source-service/internal/storage"
	"github.com/shard-legends/crafting-source-service/pkg/logger"
	"github.com/shard-legends/crafting-source-service/pkg/mcversion"
	"github.com/shard-legends/crafting-source-service/pkg/metrics"
)

const serviceVersion = "1.0.0"

// Exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitSchemaDrift = 2
)

// options holds flags that only make sense on the command line
type options struct {
	versions    []string
	skipExtract bool
	audit       bool
	query       string
	rangeExpr   string
}

// configFlags maps configuration keys to the flags that override them
var configFlags = map[string]string{
	"extraction.versions_dir": "versions-dir",
	"extraction.output_dir":   "output-dir",
	"extraction.workers":      "workers",
	"logging.level":           "log-level",
	"logging.format":          "log-format",
	"metrics.textfile":        "metrics-textfile",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

func newFlagSet(opts *options) *pflag.FlagSet {
	flags := pflag.NewFlagSet("crafting-source", pflag.ContinueOnError)

	flags.StringSliceVar(&opts.versions, "version", nil, "version directory under versions_dir to extract (repeatable, all when omitted)")
	flags.BoolVar(&opts.skipExtract, "skip-extract", false, "do not extract, only query artifacts written earlier")
	flags.BoolVar(&opts.audit, "audit", false, "print an audit report per extracted version and exit 2 on schema drift")
	flags.StringVar(&opts.query, "query", "", "item or #tag to look up across stored versions")
	flags.StringVar(&opts.rangeExpr, "range", "..", "version range for --query, e.g. 1.20..1.21")

	flags.String("versions-dir", "", "directory holding one export per version")
	flags.String("output-dir", "", "directory artifacts are written to")
	flags.Int("workers", 0, "files extracted in parallel per tree")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-format", "", "json or console")
	flags.String("metrics-textfile", "", "write Prometheus metrics to this file on exit")

	return flags
}

func bindFlags(flags *pflag.FlagSet) error {
	for key, name := range configFlags {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	var opts options
	flags := newFlagSet(&opts)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(os.Stderr, "Invalid arguments: %v\n", err)
		return exitFailure
	}
	if err := bindFlags(flags); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitFailure
	}

	// .env is optional, real environment variables win
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return exitFailure
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return exitFailure
	}
	defer logger.Sync()

	metrics.ServiceInfo.WithLabelValues(serviceVersion, time.Now().Format(time.RFC3339)).Set(1)

	pins, err := mcversion.NewPins(cfg.Versions.SnapshotPins)
	if err != nil {
		logger.Error("Invalid snapshot pins", zap.Error(err))
		return exitFailure
	}

	// Initialize repository dependencies
	metricsAdapter := adapters.NewMetricsAdapter()
	repositoryDeps := &storage.RepositoryDependencies{
		OutputDir:        cfg.Extraction.OutputDir,
		CacheTTL:         cfg.Redis.ArtifactTTL,
		CacheKeyPrefix:   cfg.Redis.KeyPrefix,
		MetricsCollector: metricsAdapter,
	}

	if cfg.Redis.Enabled {
		redis, err := database.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without artifact cache", zap.Error(err))
		} else {
			defer redis.Close()
			var cache storage.CacheInterface = adapters.NewCacheAdapter(redis)
			if err := cache.Health(ctx); err != nil {
				logger.Warn("Redis health check failed, continuing without artifact cache", zap.Error(err))
			} else {
				repositoryDeps.Cache = cache
			}
		}
	}

	repository := storage.NewRepository(repositoryDeps)

	serviceLayer := service.NewService(&service.ServiceDependencies{
		Repository: repository,
		Metrics:    metricsAdapter,
		Layout: service.Layout{
			RecipeDir:    cfg.Extraction.RecipeDir,
			LootTableDir: cfg.Extraction.LootTableDir,
			MetadataFile: cfg.Extraction.MetadataFile,
		},
		Workers: cfg.Extraction.Workers,
		Pins:    pins,
		QueryCache: service.QueryCacheOptions{
			TTL:             cfg.Query.CacheTTL,
			CleanupInterval: cfg.Query.CacheCleanupInterval,
		},
	})

	code := exitOK
	if !opts.skipExtract {
		code = extractVersions(ctx, serviceLayer, cfg, &opts, stdout)
	}
	if opts.query != "" && code != exitFailure {
		if err := queryItem(ctx, serviceLayer.Query, &opts, stdout); err != nil {
			logger.Error("Query failed", zap.String("item", opts.query), zap.Error(err))
			code = exitFailure
		}
	}

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("Failed to export metrics", zap.Error(err))
		}
	}

	return code
}

// extractVersions runs every requested version in turn. A failed version does not stop the rest.
func extractVersions(ctx context.Context, svc *service.Service, cfg *config.Config, opts *options, stdout io.Writer) int {
	versions := opts.versions
	if len(versions) == 0 {
		var err error
		if versions, err = listVersionDirs(cfg.Extraction.VersionsDir); err != nil {
			logger.Error("Failed to list versions", zap.String("dir", cfg.Extraction.VersionsDir), zap.Error(err))
			return exitFailure
		}
	}

	logger.Info("Starting extraction",
		zap.String("versions_dir", cfg.Extraction.VersionsDir),
		zap.String("output_dir", cfg.Extraction.OutputDir),
		zap.Int("versions", len(versions)),
	)

	failed, drift := 0, false
	for _, v := range versions {
		if ctx.Err() != nil {
			logger.Warn("Extraction interrupted", zap.Error(ctx.Err()))
			return exitFailure
		}

		log := logger.With(zap.String("version_dir", v))

		artifact, err := svc.Aggregator.Run(ctx, filepath.Join(cfg.Extraction.VersionsDir, v))
		if err != nil {
			log.Error("Version extraction failed", zap.Error(err))
			failed++
			continue
		}

		if opts.audit {
			report := svc.Auditor.Audit(artifact)
			if err := writeJSON(stdout, report); err != nil {
				log.Error("Failed to write audit report", zap.Error(err))
				return exitFailure
			}
			if report.HasSchemaDrift() {
				log.Warn("Schema drift detected",
					zap.String("version", artifact.Version),
					zap.Int("unrecognized", len(report.UnrecognizedKinds)),
				)
				drift = true
			}
		}
	}

	logger.Info("Extraction finished", zap.Int("versions", len(versions)), zap.Int("failed", failed))

	switch {
	case failed > 0:
		return exitFailure
	case drift:
		return exitSchemaDrift
	}
	return exitOK
}

// listVersionDirs returns the subdirectories of dir in name order
func listVersionDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	return versions, nil
}

// queryResult is printed for --query
type queryResult struct {
	Item      models.ItemReference `json:"item"`
	Range     string               `json:"range"`
	Available string               `json:"available,omitempty"`
	Sources   []service.ItemSource `json:"sources"`
}

func queryItem(ctx context.Context, query service.VersionedQuery, opts *options, stdout io.Writer) error {
	r, err := mcversion.ParseRange(opts.rangeExpr)
	if err != nil {
		return fmt.Errorf("invalid range %q: %w", opts.rangeExpr, err)
	}
	item := models.ItemReference(opts.query)

	sources, err := query.SourcesOf(ctx, r, item)
	if err != nil {
		return err
	}
	result := queryResult{Item: item, Range: r.String(), Sources: sources}

	first, ok, err := query.Available(ctx, item)
	if err != nil {
		return err
	}
	if ok {
		result.Available = first.String()
	}
	return writeJSON(stdout, result)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
