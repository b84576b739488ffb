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

package selection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/coinselect/utxo"
	"github.com/blinklabs-io/coinselect/value"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/blinklabs-io/coinselect/selection"

// Selector wraps Select with logging, metrics and tracing
type Selector struct {
	logger         *slog.Logger
	promRegistry   prometheus.Registerer
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	metrics        *selectorMetrics
	coinsPerByte   uint64
}

type SelectorOptionFunc func(*Selector)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) SelectorOptionFunc {
	return func(s *Selector) {
		s.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(registry prometheus.Registerer) SelectorOptionFunc {
	return func(s *Selector) {
		s.promRegistry = registry
	}
}

// WithTracerProvider specifies the OpenTelemetry tracer provider. The global
// provider is used by default
func WithTracerProvider(tp trace.TracerProvider) SelectorOptionFunc {
	return func(s *Selector) {
		s.tracerProvider = tp
	}
}

// WithCoinsPerByte sets the coinsPerUTxOByte protocol parameter
func WithCoinsPerByte(coinsPerByte uint64) SelectorOptionFunc {
	return func(s *Selector) {
		s.coinsPerByte = coinsPerByte
	}
}

func New(opts ...SelectorOptionFunc) *Selector {
	s := &Selector{
		coinsPerByte: DefaultCoinsPerByte,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s.logger = s.logger.With("component", "selection")
	if s.tracerProvider == nil {
		s.tracerProvider = otel.GetTracerProvider()
	}
	s.tracer = s.tracerProvider.Tracer(tracerName)
	if s.promRegistry != nil {
		s.metrics = &selectorMetrics{}
		s.metrics.init(s.promRegistry)
	}
	return s
}

func (s *Selector) CoinsPerByte() uint64 {
	return s.coinsPerByte
}

// Select runs coin selection with the configured coinsPerByte
func (s *Selector) Select(
	ctx context.Context,
	candidates []utxo.UnspentOutput,
	target value.Value,
) (*Result, error) {
	return s.SelectWithCoinsPerByte(ctx, candidates, target, s.coinsPerByte)
}

// SelectWithCoinsPerByte runs coin selection with an explicit coinsPerByte
func (s *Selector) SelectWithCoinsPerByte(
	ctx context.Context,
	candidates []utxo.UnspentOutput,
	target value.Value,
	coinsPerByte uint64,
) (*Result, error) {
	_, span := s.tracer.Start(ctx, "coin_selection")
	defer span.End()
	span.SetAttributes(
		attribute.Int("candidates", len(candidates)),
		attribute.Int("target.assets", len(target.AssetIds())),
		attribute.Int64("coins_per_byte", int64(coinsPerByte)), //nolint:gosec
	)
	start := time.Now()
	res, err := Select(candidates, target, coinsPerByte)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.observe(err, 0, elapsed)
		var fundsErr *InsufficientFundsError
		if errors.As(err, &fundsErr) {
			s.logger.Debug(
				"coin selection failed",
				"shortfall", fundsErr.Kind.String(),
				"want", fundsErr.Want,
				"available", fundsErr.Available,
				"candidates", len(candidates),
			)
		}
		return nil, err
	}
	span.SetAttributes(attribute.Int("selected", len(res.Selected)))
	s.observe(nil, len(res.Selected), elapsed)
	s.logger.Debug(
		"coin selection complete",
		"candidates", len(candidates),
		"selected", len(res.Selected),
		"target", target.String(),
		"duration", elapsed,
	)
	return res, nil
}

func (s *Selector) observe(err error, selected int, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.selections.WithLabelValues(Outcome(err)).Inc()
	s.metrics.duration.Observe(elapsed.Seconds())
	if err == nil {
		s.metrics.selectedInputs.Observe(float64(selected))
	}
}
