package internal

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type exporterFactory func(ctx context.Context) (sdkmetric.Exporter, error)

var exporters = map[ExportOption]exporterFactory{
	ExportOptionStdout: func(context.Context) (sdkmetric.Exporter, error) {
		return stdoutmetric.New(stdoutmetric.WithPrettyPrint())
	},
	ExportOptionGrpc: func(ctx context.Context) (sdkmetric.Exporter, error) {
		// endpoint and credentials come from the OTEL_EXPORTER_OTLP_* variables
		return otlpmetricgrpc.New(ctx)
	},
}

// InitMetrics installs the global meter provider. With ExportOptionNone the
// default no-op provider is kept.
func InitMetrics(ctx context.Context, config *Config) error {
	if config == nil || config.MetricExportOption == ExportOptionNone {
		return nil
	}

	newExporter, ok := exporters[config.MetricExportOption]
	if !ok {
		return fmt.Errorf("unknown metric export option: %s", config.MetricExportOption)
	}
	exporter, err := newExporter(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize %s exporter: %w", config.MetricExportOption, err)
	}

	res, err := NewResource(config)
	if err != nil {
		return fmt.Errorf("failed to initialize metric provider: %w", err)
	}

	interval := config.MetricExportInterval
	if interval <= 0 {
		interval = DefaultMetricExportInterval
	}
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
		sdkmetric.WithResource(res),
	))
	return nil
}

// ShutdownMetrics flushes the pending metrics of a provider installed by InitMetrics.
func ShutdownMetrics(ctx context.Context) error {
	mp, ok := otel.GetMeterProvider().(*sdkmetric.MeterProvider)
	if !ok {
		return nil
	}
	return mp.Shutdown(ctx)
}
