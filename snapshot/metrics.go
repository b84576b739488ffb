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

package snapshot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricNamePrefix = "coinselect_snapshot_"

type storeMetrics struct {
	ops   *prometheus.CounterVec
	utxos prometheus.Gauge
}

func (m *storeMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.ops = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricNamePrefix + "ops_total",
			Help: "Total number of snapshot store operations",
		},
		[]string{"op"},
	)
	m.utxos = promautoFactory.NewGauge(
		prometheus.GaugeOpts{
			Name: metricNamePrefix + "utxos",
			Help: "number of UTxOs seen by the last full scan",
		},
	)
}

func (m *storeMetrics) op(name string, n int) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(name).Add(float64(n))
}
