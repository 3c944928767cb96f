package internal

import (
	"context"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func NewResource(config *Config) (*resource.Resource, error) {
	return resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceName(config.ServiceName)),
	)
}
