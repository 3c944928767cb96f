package main

import (
	"strings"
	"testing"
	"time"

	"github.com/NilFoundation/receipts/nil/cmd/receipts/internal/common"
	"github.com/NilFoundation/receipts/nil/internal/telemetry"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConfig(t *testing.T) {
	t.Parallel()

	v := viper.New()
	v.SetConfigType("ini")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
[receipts]
db_path = /tmp/receipts
gc_discard_ratio = 0.25
gc_frequency = 10m
cache_size = 32
metrics = stdout
`)))

	cfg := common.NewDefaultConfig()
	require.NoError(t, v.UnmarshalKey(common.ConfigSection, &cfg, updateDecoderConfig))
	assert.Equal(t, common.Config{
		DbPath:         "/tmp/receipts",
		GcDiscardRatio: 0.25,
		GcFrequency:    10 * time.Minute,
		CacheSize:      32,
		Metrics:        telemetry.ExportOptionStdout,
	}, cfg)

	require.NoError(t, v.ReadConfig(strings.NewReader("[receipts]\nmetrics = prometheus\n")))
	require.Error(t, v.UnmarshalKey(common.ConfigSection, &cfg, updateDecoderConfig))
}
