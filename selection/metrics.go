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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type selectorMetrics struct {
	selections     *prometheus.CounterVec
	selectedInputs prometheus.Histogram
	duration       prometheus.Histogram
}

func (m *selectorMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.selections = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinselect_selections_total",
			Help: "coin selections performed, by result",
		},
		[]string{"result"},
	)
	m.selectedInputs = promautoFactory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coinselect_selected_inputs",
			Help:    "number of inputs chosen per successful selection",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
	m.duration = promautoFactory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coinselect_selection_duration_seconds",
			Help:    "time spent in coin selection",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
	)
}
