package internal

import (
	"fmt"
	"time"
)

const DefaultMetricExportInterval = 10 * time.Second

type ExportOption int

const (
	ExportOptionNone ExportOption = iota
	ExportOptionStdout
	ExportOptionGrpc
)

var exportOptionNames = map[ExportOption]string{
	ExportOptionNone:   "none",
	ExportOptionStdout: "stdout",
	ExportOptionGrpc:   "grpc",
}

func (o ExportOption) String() string {
	if name, ok := exportOptionNames[o]; ok {
		return name
	}
	return fmt.Sprintf("ExportOption(%d)", int(o))
}

func (o *ExportOption) Set(value string) error {
	for opt, name := range exportOptionNames {
		if name == value {
			*o = opt
			return nil
		}
	}
	return fmt.Errorf("unknown export option %q", value)
}

func (o ExportOption) Type() string {
	return "ExportOption"
}

type Config struct {
	ServiceName string `yaml:"serviceName"`

	MetricExportOption   ExportOption  `yaml:"metricExportOption"`
	MetricExportInterval time.Duration `yaml:"metricExportInterval,omitempty"`
}
