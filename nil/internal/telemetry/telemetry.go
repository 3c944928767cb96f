package telemetry

import (
	"context"

	"github.com/NilFoundation/receipts/nil/common/logging"
	"github.com/NilFoundation/receipts/nil/internal/telemetry/internal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type (
	Config       = internal.Config
	ExportOption = internal.ExportOption

	Meter = metric.Meter
)

var logger = logging.NewLogger("telemetry")

const (
	ExportOptionNone   = internal.ExportOptionNone
	ExportOptionStdout = internal.ExportOptionStdout
	ExportOptionGrpc   = internal.ExportOptionGrpc
)

func NewDefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName:          serviceName,
		MetricExportOption:   ExportOptionNone,
		MetricExportInterval: internal.DefaultMetricExportInterval,
	}
}

func Init(ctx context.Context, config *Config) error {
	return internal.InitMetrics(ctx, config)
}

// Shutdown flushes pending metrics; errors are only logged.
func Shutdown(ctx context.Context) {
	if err := internal.ShutdownMetrics(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to shut down metrics")
	}
}

func NewMeter(name string) Meter {
	return otel.Meter(name)
}
