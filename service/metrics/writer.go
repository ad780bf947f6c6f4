// Copyright 2022 Optakt Labs OÜ
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/optakt/account-indexer/models/activity"
)

const namespaceIndexer = "indexer"

// Writer wraps an activity writer and exposes the number of applied and
// retracted events, along with the slot of the last applied event, as
// Prometheus metrics.
type Writer struct {
	write    activity.Writer
	applied  prometheus.Counter
	retract  prometheus.Counter
	lastSlot prometheus.Gauge
}

// NewWriter creates a metrics writer wrapping the given activity writer.
func NewWriter(write activity.Writer) *Writer {
	appliedOpts := prometheus.CounterOpts{
		Name:      "applied_events",
		Namespace: namespaceIndexer,
		Help:      "number of applied events",
	}
	applied := promauto.NewCounter(appliedOpts)

	retractOpts := prometheus.CounterOpts{
		Name:      "retracted_events",
		Namespace: namespaceIndexer,
		Help:      "number of retracted events",
	}
	retract := promauto.NewCounter(retractOpts)

	lastSlotOpts := prometheus.GaugeOpts{
		Name:      "last_slot",
		Namespace: namespaceIndexer,
		Help:      "slot of the last applied event",
	}
	lastSlot := promauto.NewGauge(lastSlotOpts)

	w := Writer{
		write:    write,
		applied:  applied,
		retract:  retract,
		lastSlot: lastSlot,
	}

	return &w
}

func (w *Writer) Apply(event *activity.Event) error {
	err := w.write.Apply(event)
	if err != nil {
		return err
	}
	w.applied.Inc()
	w.lastSlot.Set(float64(event.Key.Slot))
	return nil
}

func (w *Writer) Retract(address activity.Address, key activity.Key) error {
	err := w.write.Retract(address, key)
	if err != nil {
		return err
	}
	w.retract.Inc()
	return nil
}

func (w *Writer) Close() error {
	return w.write.Close()
}
