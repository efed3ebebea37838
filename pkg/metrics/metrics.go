// Package metrics provides Prometheus metrics for DODS transfers.
//
// # Overview
//
// Every encoded or decoded response is tracked as a Transfer. A transfer
// accumulates its byte count locally and publishes it, together with its
// duration and outcome, when it finishes, so the codec hot path only
// touches an integer.
//
// # Basic Usage
//
//	t := metrics.StartTransfer(metrics.Decode, "gzip")
//	// feed t.AddBytes from the wire progress sink
//	t.Finish(err)
//
// # Metric Types
//
// Counter: bytes, variables and errors per direction
// Gauge: transfers in flight
// Histogram: transfer duration
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

// Direction labels a transfer.
type Direction string

const (
	// Encode is a response being written
	Encode Direction = "encode"
	// Decode is a response being read
	Decode Direction = "decode"
)

var (
	// BytesTransferred counts uncompressed body bytes.
	// Labels: direction (encode/decode), compression (algorithm name)
	//
	// Example:
	//	metrics.BytesTransferred.WithLabelValues("decode", "none").Add(4096)
	BytesTransferred = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dap2_bytes_transferred_total",
			Help: "Total number of uncompressed DODS body bytes transferred",
		},
		[]string{"direction", "compression"},
	)

	// VariablesTransferred counts top-level variables by kind.
	// Labels: direction, kind (Int32, Grid, Sequence, ...)
	VariablesTransferred = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dap2_variables_transferred_total",
			Help: "Total number of top-level variables transferred",
		},
		[]string{"direction", "kind"},
	)

	// TransferErrors counts failed transfers by DAP2 error code.
	// Labels: direction, code (NoSuchVariable, CannotReadFile, ...)
	TransferErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dap2_transfer_errors_total",
			Help: "Total number of failed transfers",
		},
		[]string{"direction", "code"},
	)

	// TransferDuration tracks the distribution of transfer durations in
	// seconds.
	TransferDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dap2_transfer_duration_seconds",
			Help: "Duration of DODS transfers in seconds",
			Buckets: []float64{
				0.0001, // 100μs - small scalar responses
				0.001,  // 1ms
				0.01,   // 10ms
				0.1,    // 100ms
				1,      // 1s - large arrays
				10,     // 10s
				60,     // 1m - bulk downloads
			},
		},
		[]string{"direction"},
	)

	// ActiveTransfers tracks transfers in flight
	ActiveTransfers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dap2_active_transfers",
			Help: "Number of transfers in flight",
		},
		[]string{"direction"},
	)
)

var disabled atomic.Bool

// SetEnabled turns metric publication on or off. Transfers started while
// disabled publish nothing.
func SetEnabled(on bool) { disabled.Store(!on) }

// Transfer tracks one encode or decode. It is safe for concurrent use.
type Transfer struct {
	direction   Direction
	compression string
	start       time.Time
	bytes       atomic.Int64
	publish     bool
	once        sync.Once
}

// StartTransfer begins tracking a transfer.
func StartTransfer(direction Direction, compression string) *Transfer {
	if compression == "" {
		compression = "none"
	}
	t := &Transfer{
		direction:   direction,
		compression: compression,
		start:       time.Now(),
		publish:     !disabled.Load(),
	}
	if t.publish {
		ActiveTransfers.WithLabelValues(string(direction)).Inc()
	}
	return t
}

// AddBytes records n body bytes.
func (t *Transfer) AddBytes(n int) { t.bytes.Add(int64(n)) }

// Bytes returns the bytes recorded so far.
func (t *Transfer) Bytes() int64 { return t.bytes.Load() }

// Variable records one top-level variable of the given kind.
func (t *Transfer) Variable(kind string) {
	if t.publish {
		VariablesTransferred.WithLabelValues(string(t.direction), kind).Inc()
	}
}

// Finish publishes the transfer. Only the first call has an effect.
func (t *Transfer) Finish(err error) time.Duration {
	elapsed := time.Since(t.start)
	t.once.Do(func() {
		if !t.publish {
			return
		}
		dir := string(t.direction)
		ActiveTransfers.WithLabelValues(dir).Dec()
		BytesTransferred.WithLabelValues(dir, t.compression).Add(float64(t.bytes.Load()))
		TransferDuration.WithLabelValues(dir).Observe(elapsed.Seconds())
		if err != nil {
			TransferErrors.WithLabelValues(dir, daperrors.CodeOf(err).String()).Inc()
		}
	})
	return elapsed
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer name.
func (t *Timer) Name() string { return t.name }

// Stop returns the elapsed duration since creation. The timer can be
// stopped multiple times.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
