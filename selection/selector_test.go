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
	"testing"

	"github.com/blinklabs-io/coinselect/value"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSelectorDefaults(t *testing.T) {
	s := New()
	assert.Equal(t, DefaultCoinsPerByte, s.CoinsPerByte())
	res, err := s.Select(
		context.Background(),
		scenario(),
		value.NewValue(4*ada).WithAsset(policyX, "X", 6),
	)
	require.NoError(t, err)
	assert.Len(t, res.Selected, 2)
}

func TestSelectorMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(WithPromRegistry(reg), WithCoinsPerByte(0))
	ctx := context.Background()

	_, err := s.Select(ctx, scenario(), value.NewValue(4*ada))
	require.NoError(t, err)
	_, err = s.Select(ctx, scenario(), value.NewValue(100*ada))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	_, err = s.Select(
		ctx,
		scenario(),
		value.NewValue(0).WithAsset(policyY, "Y", 1),
	)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	assert.InDelta(
		t,
		1,
		testutil.ToFloat64(s.metrics.selections.WithLabelValues("ok")),
		0,
	)
	assert.InDelta(
		t,
		1,
		testutil.ToFloat64(
			s.metrics.selections.WithLabelValues("insufficient_lovelace"),
		),
		0,
	)
	assert.InDelta(
		t,
		1,
		testutil.ToFloat64(
			s.metrics.selections.WithLabelValues("insufficient_asset"),
		),
		0,
	)
	count, err := testutil.GatherAndCount(
		reg,
		"coinselect_selected_inputs",
		"coinselect_selection_duration_seconds",
	)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSelectorSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()
	s := New(WithTracerProvider(tp))

	_, err := s.Select(context.Background(), scenario(), value.NewValue(ada))
	require.NoError(t, err)
	_, err = s.Select(
		context.Background(),
		scenario(),
		value.NewValue(0).WithAsset(policyX, "X", 11),
	)
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "coin_selection", spans[0].Name)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
}
