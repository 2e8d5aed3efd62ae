package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/martinricard/d2loadout-widget/internal/bungie"
	"github.com/martinricard/d2loadout-widget/internal/config"
	"github.com/martinricard/d2loadout-widget/internal/dimlink"
	"github.com/martinricard/d2loadout-widget/internal/loadout"
	"github.com/martinricard/d2loadout-widget/internal/manifest"
	"github.com/martinricard/d2loadout-widget/internal/observability"
	"github.com/martinricard/d2loadout-widget/internal/widget"
)

// app holds the wired components shared by every subcommand.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	tracer   *sdktrace.TracerProvider
	resolver *manifest.Resolver
	service  *widget.Service
}

// flushTimeout bounds span export on exit.
const flushTimeout = 5 * time.Second

func newApp() (*app, error) {
	start := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	tp, err := observability.NewTracerProvider(cfg.Tracing, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	client := bungie.NewClient(bungie.Config{
		BaseURL:       cfg.Bungie.BaseURL,
		APIKey:        cfg.Bungie.APIKey,
		Timeout:       cfg.Bungie.Timeout,
		RatePerSecond: cfg.Bungie.RatePerSecond,
		Burst:         cfg.Bungie.Burst,
	}, logger.Named("bungie"))
	if !client.HasAPIKey() {
		logger.Warn("bungie api key not configured; loadout requests will fail")
	}

	resolver, err := manifest.NewResolver(client, cfg.Cache.Size, logger.Named("manifest"))
	if err != nil {
		return nil, fmt.Errorf("creating resolver: %w", err)
	}

	tax := loadout.DefaultTaxonomy()
	extractor := loadout.NewExtractor(resolver, tax, logger.Named("loadout"))

	var shortener dimlink.Shortener
	if cfg.DIMLink.Shorten {
		shortener = dimlink.NewTinyURL(cfg.DIMLink.ShortenerURL, cfg.DIMLink.ShortenTimeout)
	}
	links := dimlink.NewBuilder(resolver, extractor.Classifier(), shortener, logger.Named("dimlink"))

	logger.Info("components wired",
		zap.Int("cache_size", cfg.Cache.Size),
		zap.Bool("dimlink_shorten", cfg.DIMLink.Shorten),
		zap.String("trace_exporter", cfg.Tracing.Exporter),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &app{
		cfg:      cfg,
		logger:   logger,
		tracer:   tp,
		resolver: resolver,
		service:  widget.NewService(client, extractor, links, logger.Named("widget")),
	}, nil
}

// close reports the definition cache size, flushes buffered spans and syncs the logger.
func (a *app) close() {
	a.logger.Info("definition cache", zap.Int("entries", a.resolver.Len()))
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := a.tracer.Shutdown(ctx); err != nil {
		a.logger.Warn("flushing traces", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// requestFromArgs accepts either "Name#1234" or "<membershipType> <membershipId>".
func requestFromArgs(args []string) (widget.Request, error) {
	switch len(args) {
	case 1:
		if !widget.IsBungieName(args[0]) {
			return widget.Request{}, fmt.Errorf("expected a Bungie name like Name#1234, got %q", args[0])
		}
		return widget.Request{BungieName: args[0]}, nil
	case 2:
		platform, err := strconv.Atoi(args[0])
		if err != nil {
			return widget.Request{}, fmt.Errorf("membership type must be numeric, got %q", args[0])
		}
		return widget.Request{MembershipType: platform, MembershipID: args[1]}, nil
	}
	return widget.Request{}, fmt.Errorf("expected 1 or 2 arguments, got %d", len(args))
}
