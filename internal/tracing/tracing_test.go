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

package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestNewTracerProviderStdout(t *testing.T) {
	orig := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(orig) })

	var buf bytes.Buffer
	tp, err := NewTracerProvider(context.Background(), Config{
		Stdout: true,
		Writer: &buf,
	})
	require.NoError(t, err)
	assert.Same(t, tp, otel.GetTracerProvider())

	_, span := otel.Tracer("test").Start(context.Background(), "select")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name": "select"`)
	assert.Contains(t, buf.String(), DefaultServiceName)
}

func TestNewTracerProviderOtlp(t *testing.T) {
	orig := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(orig) })

	tp, err := NewTracerProvider(context.Background(), Config{
		Endpoint:    "http://127.0.0.1:4318",
		ServiceName: "coinselect-test",
	})
	require.NoError(t, err)
	// Nothing was recorded, so shutdown does not contact the collector
	require.NoError(t, tp.Shutdown(context.Background()))
}
