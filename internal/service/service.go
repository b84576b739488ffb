// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package service assembles the selector, snapshot store, journal and API
// server from a loaded config
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/coinselect/api"
	"github.com/blinklabs-io/coinselect/bindings"
	"github.com/blinklabs-io/coinselect/codec"
	"github.com/blinklabs-io/coinselect/internal/config"
	"github.com/blinklabs-io/coinselect/internal/tracing"
	"github.com/blinklabs-io/coinselect/journal"
	"github.com/blinklabs-io/coinselect/selection"
	"github.com/blinklabs-io/coinselect/snapshot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Services holds the long-lived components built from a config
type Services struct {
	Registry       *prometheus.Registry
	Selector       *selection.Selector
	Boundary       *bindings.Boundary
	Snapshot       *snapshot.Store
	Journal        *journal.Journal
	config         *config.Config
	logger         *slog.Logger
	tracerProvider *sdktrace.TracerProvider
}

// Open builds the components described by cfg. The caller must call Close
func Open(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (*Services, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s := &Services{
		Registry: prometheus.NewRegistry(),
		config:   cfg,
		logger:   logger,
	}
	s.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if cfg.Tracing {
		tp, err := tracing.NewTracerProvider(ctx, tracing.Config{
			Logger:   logger,
			Endpoint: cfg.TracingEndpoint,
			Stdout:   cfg.TracingStdout,
		})
		if err != nil {
			return nil, err
		}
		s.tracerProvider = tp
	}
	c, err := codec.New(cfg.Codec)
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	s.Snapshot, err = snapshot.Open(
		snapshot.WithLogger(logger),
		snapshot.WithPromRegistry(s.Registry),
		snapshot.WithDataDir(cfg.DataDir),
		snapshot.WithDecoder(c),
	)
	if err != nil {
		_ = s.Close(ctx)
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	if cfg.Journal {
		s.Journal, err = journal.New(cfg.DataDir, logger)
		if err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
	}
	selectorOpts := []selection.SelectorOptionFunc{
		selection.WithLogger(logger),
		selection.WithPromRegistry(s.Registry),
		selection.WithCoinsPerByte(cfg.CoinsPerByte),
	}
	if s.tracerProvider != nil {
		selectorOpts = append(
			selectorOpts,
			selection.WithTracerProvider(s.tracerProvider),
		)
	}
	s.Selector = selection.New(selectorOpts...)
	s.Boundary = bindings.New(bindings.Config{
		Codec:        c,
		Selector:     s.Selector,
		Journal:      s.Journal,
		CoinsPerByte: cfg.CoinsPerByte,
		ErrorReporting: bindings.ErrorReporting{
			Logger:       logger,
			LogPanics:    cfg.LogPanics,
			IncludeStack: cfg.IncludeStack,
		},
	})
	return s, nil
}

// Close releases every component that was opened
func (s *Services) Close(ctx context.Context) error {
	var errs []error
	if s.Journal != nil {
		if err := s.Journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("journal: %w", err))
		}
		s.Journal = nil
	}
	if s.Snapshot != nil {
		if err := s.Snapshot.Close(); err != nil {
			errs = append(errs, fmt.Errorf("snapshot: %w", err))
		}
		s.Snapshot = nil
	}
	if s.tracerProvider != nil {
		if err := s.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracing: %w", err))
		}
		s.tracerProvider = nil
	}
	return errors.Join(errs...)
}

// ApiServer returns an API server backed by the services
func (s *Services) ApiServer() (*api.Server, error) {
	serverCfg := api.ServerConfig{
		Logger:        s.logger,
		Boundary:      s.Boundary,
		Snapshot:      s.Snapshot,
		ListenAddress: s.config.ApiListenAddress(),
	}
	// A nil *journal.Journal must not end up in the interface
	if s.Journal != nil {
		serverCfg.Journal = s.Journal
	}
	return api.NewServer(serverCfg)
}

// MetricsHandler serves the services' prometheus registry
func (s *Services) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})
}

// Run serves the API and metrics listeners until ctx is cancelled or a
// SIGINT/SIGTERM arrives
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return err
	}
	signalCtx, signalCtxStop := signal.NotifyContext(
		ctx,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	svcs, err := Open(signalCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := svcs.Close(shutdownCtx); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
		}
	}()

	errChan := make(chan error, 1)
	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", svcs.MetricsHandler())
		metricsServer = &http.Server{
			Addr:              cfg.MetricsListenAddress(),
			Handler:           mux,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		ln, err := net.Listen("tcp", metricsServer.Addr)
		if err != nil {
			return fmt.Errorf("failed to start metrics listener: %w", err)
		}
		logger.Info(
			"serving prometheus metrics on "+ln.Addr().String(),
			"component", "service",
		)
		go func() {
			if err := metricsServer.Serve(ln); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				select {
				case errChan <- fmt.Errorf("metrics listener: %w", err):
				default:
				}
			}
		}()
	}

	stopMetrics := func(ctx context.Context) {
		if metricsServer == nil {
			return
		}
		if stopErr := metricsServer.Shutdown(ctx); stopErr != nil {
			logger.Error("metrics server shutdown error", "error", stopErr)
		}
	}

	server, err := svcs.ApiServer()
	if err == nil {
		err = server.Start(signalCtx)
	}
	if err != nil {
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		stopMetrics(shutdownCtx)
		return err
	}

	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")
	case err = <-errChan:
		logger.Error("listener error", "error", err)
	}
	//nolint:contextcheck
	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		shutdownTimeout,
	)
	defer cancel()
	if stopErr := server.Stop(shutdownCtx); stopErr != nil {
		logger.Error("API server shutdown error", "error", stopErr)
	}
	stopMetrics(shutdownCtx)
	if err == nil {
		logger.Info("shutdown complete")
	}
	return err
}
