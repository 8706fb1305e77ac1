package main

import (
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-bed/internal/cache"
	"github.com/inodb/vibe-bed/internal/duckdb"
)

// openStore opens the session database under the data directory.
func openStore() (*duckdb.Store, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}
	return duckdb.Open(filepath.Join(dir, "vibe-bed.duckdb"))
}

// gatewayOptions selects the metadata source for a resolve run.
type gatewayOptions struct {
	fixtures   string // JSON fixture file or directory; REST when empty
	noCache    bool
	clearCache bool
}

// newGateway returns the fixture cache or the REST gateway, the latter
// wrapped in the DuckDB lookup cache unless disabled.
func newGateway(store *duckdb.Store, opts gatewayOptions, reg prometheus.Registerer, logger *zap.Logger) (cache.Gateway, error) {
	if opts.fixtures != "" {
		c := cache.New()
		if err := cache.NewLoader(opts.fixtures).LoadAll(c); err != nil {
			return nil, fmt.Errorf("load fixtures: %w", err)
		}
		logger.Info("loaded fixtures",
			zap.String("path", opts.fixtures),
			zap.Int("transcripts", c.TranscriptCount()),
			zap.Stringers("assemblies", c.Assemblies()))
		return c, nil
	}

	cfg := cache.DefaultRESTConfig()
	cfg.TarkURL = viper.GetString("gateway.tark_url")
	cfg.EnsemblGRCh38URL = viper.GetString("gateway.ensembl_grch38_url")
	cfg.EnsemblGRCh37URL = viper.GetString("gateway.ensembl_grch37_url")
	cfg.Timeout = viper.GetDuration("gateway.timeout")
	cfg.Retries = viper.GetInt("gateway.retries")

	rest := cache.NewRESTGateway(cfg)
	rest.SetLogger(logger)
	rest.SetMetrics(cache.NewMetrics(reg))

	lookups := duckdb.NewLookupCache(store, rest, viper.GetDuration("gateway.cache_ttl"))
	if opts.clearCache {
		removed, err := lookups.Clear()
		if err != nil {
			return nil, err
		}
		logger.Info("cleared lookup cache", zap.Int64("entries", removed))
	}
	if opts.noCache {
		return rest, nil
	}
	return lookups, nil
}

// writeMetrics writes gathered metrics to the configured textfile, if any.
func writeMetrics(reg *prometheus.Registry, logger *zap.Logger) {
	path := viper.GetString("metrics.textfile")
	if path == "" {
		return
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		logger.Warn("writing metrics textfile", zap.String("path", path), zap.Error(err))
	}
}
