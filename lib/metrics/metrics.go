// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics exposes node-proxy's own operational counters in
// Prometheus format. Hardware health itself is delivered to the
// manager, not scraped; these series describe the daemon: how often
// controller fetches fail, how long update cycles take, how deliveries
// fare, and how often workers are restarted.
//
// All methods are safe on a nil *Metrics, so packages take an optional
// *Metrics and tests pass nil.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "node_proxy"

// Metrics owns a private registry so that tests can create as many
// instances as they like.
type Metrics struct {
	registry *prometheus.Registry

	fetchFailures     *prometheus.CounterVec
	componentFailures *prometheus.CounterVec
	cycles            *prometheus.CounterVec
	cycleDuration     prometheus.Histogram
	deliveryAttempts  *prometheus.CounterVec
	deliveries        *prometheus.CounterVec
	workerRestarts    *prometheus.CounterVec
	dataReady         prometheus.Gauge
}

// New registers every node-proxy series plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redfish",
			Name:      "fetch_failures_total",
			Help:      "Controller requests that failed, by error kind.",
		}, []string{"kind"}),
		componentFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "system",
			Name:      "component_failures_total",
			Help:      "Component collection tasks that failed within an update cycle.",
		}, []string{"component"}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "system",
			Name:      "update_cycles_total",
			Help:      "Update cycles, by result.",
		}, []string{"result"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "system",
			Name:      "update_cycle_seconds",
			Help:      "Wall time of complete update cycles.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		deliveryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporter",
			Name:      "delivery_attempts_total",
			Help:      "Individual POSTs to the manager, by result.",
		}, []string{"result"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporter",
			Name:      "deliveries_total",
			Help:      "Snapshot deliveries after retries, by result.",
		}, []string{"result"}),
		workerRestarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "worker_restarts_total",
			Help:      "Worker restarts, by worker and reason.",
		}, []string{"worker", "reason"}),
		dataReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "system",
			Name:      "data_ready",
			Help:      "1 when a complete snapshot is available.",
		}),
	}
	m.registry.MustRegister(
		m.fetchFailures,
		m.componentFailures,
		m.cycles,
		m.cycleDuration,
		m.deliveryAttempts,
		m.deliveries,
		m.workerRestarts,
		m.dataReady,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) FetchFailed(kind string) {
	if m == nil {
		return
	}
	m.fetchFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) ComponentFailed(component string) {
	if m == nil {
		return
	}
	m.componentFailures.WithLabelValues(component).Inc()
}

// CycleFinished records one update cycle. ok is false when the cycle
// aborted.
func (m *Metrics) CycleFinished(duration time.Duration, ok bool) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(result(ok)).Inc()
	if ok {
		m.cycleDuration.Observe(duration.Seconds())
	}
}

func (m *Metrics) DeliveryAttempt(ok bool) {
	if m == nil {
		return
	}
	m.deliveryAttempts.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) Delivery(ok bool) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) WorkerRestarted(worker, reason string) {
	if m == nil {
		return
	}
	m.workerRestarts.WithLabelValues(worker, reason).Inc()
}

func (m *Metrics) SetDataReady(ready bool) {
	if m == nil {
		return
	}
	if ready {
		m.dataReady.Set(1)
	} else {
		m.dataReady.Set(0)
	}
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
