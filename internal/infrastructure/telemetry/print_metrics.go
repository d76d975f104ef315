package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// DispatchRecord describes one finished dispatch
type DispatchRecord struct {
	Backend   string
	Target    string
	Status    string
	ErrorCode string
	Duration  time.Duration
	Bytes     int64
	Pages     int
	Overflow  bool
}

// PrintMetrics holds the dispatch instruments
type PrintMetrics struct {
	dispatches metric.Int64Counter
	duration   metric.Float64Histogram
	bytes      metric.Int64Counter
	pages      metric.Int64Counter
	overflows  metric.Int64Counter
	lockWait   metric.Float64Histogram
}

// NewPrintMetrics registers the dispatch instruments on meter
func NewPrintMetrics(meter metric.Meter) (*PrintMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	m := &PrintMetrics{}
	var err error
	if m.dispatches, err = meter.Int64Counter("print_dispatch_total",
		metric.WithDescription("Print dispatches by backend, target and outcome"),
		metric.WithUnit("{dispatches}")); err != nil {
		return nil, err
	}
	if m.duration, err = meter.Float64Histogram("print_dispatch_duration_seconds",
		metric.WithDescription("Time from dispatch start to outcome"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30)); err != nil {
		return nil, err
	}
	if m.bytes, err = meter.Int64Counter("print_output_bytes_total",
		metric.WithDescription("Bytes written to devices and storage"),
		metric.WithUnit("By")); err != nil {
		return nil, err
	}
	if m.pages, err = meter.Int64Counter("print_pages_total",
		metric.WithDescription("Pages produced"),
		metric.WithUnit("{pages}")); err != nil {
		return nil, err
	}
	if m.overflows, err = meter.Int64Counter("print_layout_overflow_total",
		metric.WithDescription("Dispatches whose content exceeded a single-page budget"),
		metric.WithUnit("{dispatches}")); err != nil {
		return nil, err
	}
	if m.lockWait, err = meter.Float64Histogram("print_device_lock_wait_seconds",
		metric.WithDescription("Time spent waiting for exclusive device access"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordDispatch records one finished dispatch
func (m *PrintMetrics) RecordDispatch(ctx context.Context, r DispatchRecord) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("backend", r.Backend),
		attribute.String("target", r.Target),
		attribute.String("status", r.Status),
	}
	if r.ErrorCode != "" {
		attrs = append(attrs, attribute.String("error_code", r.ErrorCode))
	}
	set := metric.WithAttributes(attrs...)
	m.dispatches.Add(ctx, 1, set)
	m.duration.Record(ctx, r.Duration.Seconds(), set)

	base := metric.WithAttributes(attribute.String("backend", r.Backend), attribute.String("target", r.Target))
	if r.Bytes > 0 {
		m.bytes.Add(ctx, r.Bytes, base)
	}
	if r.Pages > 0 {
		m.pages.Add(ctx, int64(r.Pages), base)
	}
	if r.Overflow {
		m.overflows.Add(ctx, 1, base)
	}
}

// RecordLockWait records how long a dispatch waited for a device
func (m *PrintMetrics) RecordLockWait(ctx context.Context, device string, wait time.Duration, acquired bool) {
	if m == nil {
		return
	}
	m.lockWait.Record(ctx, wait.Seconds(), metric.WithAttributes(
		attribute.String("device", device),
		attribute.Bool("acquired", acquired),
	))
}
