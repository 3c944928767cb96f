package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/NilFoundation/receipts/nil/common/check"
	"github.com/NilFoundation/receipts/nil/internal/db"
	"github.com/NilFoundation/receipts/nil/internal/execution"
	"github.com/NilFoundation/receipts/nil/internal/telemetry"
	"github.com/spf13/viper"
)

type Config struct {
	DbPath         string                 `mapstructure:"db_path"`
	GcDiscardRatio float64                `mapstructure:"gc_discard_ratio"`
	GcFrequency    time.Duration          `mapstructure:"gc_frequency"`
	CacheSize      int                    `mapstructure:"cache_size"`
	Metrics        telemetry.ExportOption `mapstructure:"metrics"`
}

const (
	// ConfigSection is the ini section holding the options below.
	ConfigSection = "receipts"

	DbPathField         = "db_path"
	GcDiscardRatioField = "gc_discard_ratio"
	GcFrequencyField    = "gc_frequency"
	CacheSizeField      = "cache_size"
	MetricsField        = "metrics"
)

const InitConfigTemplate = `; Configuration of the receipts tool
[receipts]

; Directory of the receipts database. It is created on first use.
; db_path = "/var/lib/receipts"

; Value log garbage collection run by "store watch"
; gc_discard_ratio = 0.5
; gc_frequency = 5m

; Number of blocks kept in the in-memory receipts cache
; cache_size = 1024

; Metrics exporter: none, stdout or grpc
; metrics = "none"
`

var DefaultConfigPath string

func init() {
	homeDir, err := os.UserHomeDir()
	check.PanicIfErr(err)

	DefaultConfigPath = filepath.Join(homeDir, ".config/receipts/config.ini")
}

func NewDefaultConfig() Config {
	dbOpts := db.NewDefaultBadgerDBOptions()
	return Config{
		GcDiscardRatio: dbOpts.DiscardRatio,
		GcFrequency:    dbOpts.GcFrequency,
		CacheSize:      execution.DefaultReceiptsCacheSize,
		Metrics:        telemetry.ExportOptionNone,
	}
}

// DbOptions returns the database options of the config; unset GC settings keep their defaults.
func (c *Config) DbOptions() *db.BadgerDBOptions {
	opts := db.NewDefaultBadgerDBOptions()
	opts.Path = c.DbPath
	if c.GcDiscardRatio != 0 {
		opts.DiscardRatio = c.GcDiscardRatio
	}
	if c.GcFrequency != 0 {
		opts.GcFrequency = c.GcFrequency
	}
	return opts
}

func InitDefaultConfig(configPath string) (string, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	dirPath := filepath.Dir(configPath)
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(configPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(InitConfigTemplate); err != nil {
		return "", fmt.Errorf("failed to write template to config file: %w", err)
	}
	return configPath, nil
}

// PatchConfig rewrites the given keys in place, appending the ones not present yet.
func PatchConfig(delta map[string]any) error {
	configPath := viper.ConfigFileUsed()
	if configPath == "" {
		panic("config file is not set")
	}
	if _, err := os.Stat(configPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			configPath, err = InitDefaultConfig(configPath)
		}
		if err != nil {
			return err
		}
	}

	cfg, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	lines := strings.Split(string(cfg), "\n")
	for i, line := range lines {
		key := strings.TrimSpace(strings.Split(line, "=")[0])
		if value, ok := delta[key]; ok {
			lines[i] = fmt.Sprintf("%s = %v", key, value)
			delete(delta, key)
		}
	}
	result := strings.Join(lines, "\n")
	if len(delta) > 0 && !strings.HasSuffix(result, "\n") {
		result += "\n"
	}
	for key, value := range delta {
		result += fmt.Sprintf("%s = %v\n", key, value)
	}
	return os.WriteFile(configPath, []byte(result), 0o600)
}

// SetConfigFile sets the config file for the viper
func SetConfigFile(cfgFile string) {
	viper.SetConfigType("ini")
	viper.SetConfigFile(cfgFile)
}
