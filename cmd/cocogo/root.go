package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/cocogo"
	"github.com/hupe1980/cocogo/blobstore"
	"github.com/hupe1980/cocogo/blobstore/minio"
	s3store "github.com/hupe1980/cocogo/blobstore/s3"
	"github.com/hupe1980/cocogo/internal/conf"
	"github.com/hupe1980/cocogo/metric"
)

// app holds the state shared by all sub-commands.
type app struct {
	v          *viper.Viper
	configFile string
	settings   *conf.Settings
	logger     *cocogo.Logger
	metrics    cocogo.MetricsCollector
	server     *http.Server
}

// RootCommand creates and returns the root command.
func RootCommand() *cobra.Command {
	a := &app{
		v:       conf.New(),
		logger:  cocogo.NoopLogger(),
		metrics: cocogo.NoopMetricsCollector{},
	}

	rootCmd := &cobra.Command{
		Use:           "cocogo",
		Short:         "Curate COCO object-detection datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initialize(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.shutdown(cmd.Context())
		},
	}

	setupFlags(rootCmd, a)

	rootCmd.AddCommand(
		a.buildCommand(),
		a.filterCommand(),
		a.mergeCommand(),
		a.splitCommand(),
		a.downloadCommand(),
		a.statsCommand(),
	)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface.
func setupFlags(rootCmd *cobra.Command, a *app) {
	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "Path to the config file (default: ./cocogo.yaml)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().String("metrics-listen", "", "Serve Prometheus metrics on this address")

	_ = a.v.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = a.v.BindPFlag("metrics.listen", rootCmd.PersistentFlags().Lookup("metrics-listen"))
}

// initialize loads the settings and sets up logging and metrics.
func (a *app) initialize(ctx context.Context) error {
	settings, err := conf.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.settings = settings

	level := slog.LevelInfo
	if settings.Debug {
		level = slog.LevelDebug
	}
	a.logger = cocogo.NewTextLogger(level)

	if settings.Metrics.Listen != "" {
		reg := prometheus.NewRegistry()
		collector, err := metric.NewPrometheusCollector(reg)
		if err != nil {
			return fmt.Errorf("error registering metrics: %w", err)
		}
		a.metrics = collector

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		a.server = &http.Server{
			Addr:              settings.Metrics.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.ErrorContext(ctx, "metrics server failed", "error", err)
			}
		}()
		a.logger.InfoContext(ctx, "serving metrics", "addr", settings.Metrics.Listen)
	}
	return nil
}

func (a *app) shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return a.server.Shutdown(ctx)
}

// store opens the configured object storage backend for bucket.
func (a *app) store(ctx context.Context, bucket string) (blobstore.BlobStore, error) {
	st := a.settings.Storage
	switch st.Backend {
	case "minio":
		s, err := minio.New(minio.Config{
			Endpoint:  st.Endpoint,
			AccessKey: st.AccessKey,
			SecretKey: st.SecretKey,
			Region:    st.Region,
			UseSSL:    st.UseSSL,
		}, bucket, "")
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := s3store.New(ctx, bucket, s3store.WithRegion(st.Region))
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// loadDataset reads a dataset from a local path or an "s3://bucket/key" location.
func (a *app) loadDataset(ctx context.Context, location string) (*cocogo.Dataset, error) {
	opts := []cocogo.Option{cocogo.WithLogger(a.logger)}
	if !strings.HasPrefix(location, "s3://") {
		return cocogo.Load(location, opts...)
	}

	bucket, key, ok := blobstore.SplitLocation(location)
	if !ok {
		return nil, fmt.Errorf("invalid location %q", location)
	}
	store, err := a.store(ctx, bucket)
	if err != nil {
		return nil, err
	}
	return cocogo.LoadBlob(ctx, store, key, opts...)
}

// saveDataset writes a dataset to a local path or an "s3://bucket/key" location.
func (a *app) saveDataset(ctx context.Context, ds *cocogo.Dataset, location string, keepEmpty bool) error {
	opts := []cocogo.Option{cocogo.WithKeepEmpty(keepEmpty)}
	if !strings.HasPrefix(location, "s3://") {
		if err := ds.Save(location, opts...); err != nil {
			return err
		}
	} else {
		bucket, key, ok := blobstore.SplitLocation(location)
		if !ok {
			return fmt.Errorf("invalid location %q", location)
		}
		store, err := a.store(ctx, bucket)
		if err != nil {
			return err
		}
		if err := ds.SaveBlob(ctx, store, key, opts...); err != nil {
			return err
		}
	}

	s := ds.Stats()
	a.logger.InfoContext(ctx, "dataset saved",
		"location", location,
		"images", s.Images,
		"categories", s.Categories,
		"annotations", s.Annotations,
	)
	return nil
}
