package telemetry

import (
	"context"
	"time"

	"github.com/NilFoundation/receipts/nil/internal/telemetry/telattr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type (
	Counter   = metric.Int64Counter
	Histogram = metric.Int64Histogram
	Gauge     = metric.Int64Gauge
)

// Measurer counts the operations of one kind and records their durations.
// It may be shared between goroutines: the start time lives in the Measurement.
type Measurer struct {
	counter   Counter
	histogram Histogram
	option    metric.MeasurementOption
}

// Measurement is a single operation in progress.
type Measurement struct {
	measurer *Measurer
	start    time.Time
}

func NewMeasurer(meter Meter, name string, attrs ...attribute.KeyValue) (*Measurer, error) {
	counter, err := meter.Int64Counter(name)
	if err != nil {
		return nil, err
	}
	histogram, err := meter.Int64Histogram(name+".duration", metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	return &Measurer{
		counter:   counter,
		histogram: histogram,
		option:    telattr.With(attrs...),
	}, nil
}

func (m *Measurer) Start() Measurement {
	return Measurement{measurer: m, start: time.Now()}
}

// Done records the operation. Failed operations are not recorded, call it on success only.
func (ms Measurement) Done(ctx context.Context) time.Duration {
	elapsed := time.Since(ms.start)
	ms.measurer.counter.Add(ctx, 1, ms.measurer.option)
	ms.measurer.histogram.Record(ctx, elapsed.Milliseconds(), ms.measurer.option)
	return elapsed
}
