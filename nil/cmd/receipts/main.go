package main

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/NilFoundation/receipts/nil/cmd/receipts/internal/codec"
	"github.com/NilFoundation/receipts/nil/cmd/receipts/internal/common"
	"github.com/NilFoundation/receipts/nil/cmd/receipts/internal/config"
	"github.com/NilFoundation/receipts/nil/cmd/receipts/internal/store"
	"github.com/NilFoundation/receipts/nil/cmd/receipts/internal/version"
	"github.com/NilFoundation/receipts/nil/common/check"
	"github.com/NilFoundation/receipts/nil/common/logging"
	"github.com/NilFoundation/receipts/nil/internal/telemetry"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type RootCommand struct {
	baseCmd  *cobra.Command
	config   common.Config
	cfgFile  string
	logLevel string
	verbose  bool
}

var logger = logging.NewLogger("root")

var noConfigCmd = map[string]struct{}{
	"help":             {},
	"completion":       {},
	"__complete":       {},
	"__completeNoDesc": {},
	"config":           {},
	"version":          {},
	"decode":           {},
	"encode":           {},
	"bloom":            {},
}

func main() {
	var rootCmd *RootCommand

	rootCmd = &RootCommand{
		config: common.NewDefaultConfig(),
		baseCmd: &cobra.Command{
			Use:   "receipts",
			Short: "Tool for encoding, storing and filtering transaction receipts",
			PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
				if !rootCmd.verbose {
					zerolog.SetGlobalLevel(zerolog.Disabled)
				} else {
					check.PanicIfErr(logging.TrySetupGlobalLevel(rootCmd.logLevel))
				}

				common.SetConfigFile(rootCmd.cfgFile)

				// Traverse up to find the top-level command
				for cmd.HasParent() && cmd.Parent() != rootCmd.baseCmd {
					cmd = cmd.Parent()
				}

				if _, withoutConfig := noConfigCmd[cmd.Name()]; withoutConfig {
					return nil
				}
				return rootCmd.loadConfig()
			},
			SilenceUsage:  true,
			SilenceErrors: true,
		},
	}

	rootCmd.baseCmd.PersistentFlags().StringVarP(&rootCmd.cfgFile, "config", "c", common.DefaultConfigPath, "Path to config file")
	rootCmd.baseCmd.PersistentFlags().StringVarP(&rootCmd.logLevel, "log-level", "l", "info", "Log level: trace|debug|info|warn|error|fatal|panic")
	rootCmd.baseCmd.PersistentFlags().BoolVarP(
		&config.Quiet,
		"quiet",
		"q",
		false,
		"Quiet mode (print only the result and exit)",
	)
	rootCmd.baseCmd.PersistentFlags().BoolVarP(
		&rootCmd.verbose,
		"verbose",
		"v",
		false,
		"Verbose mode (print logs)",
	)

	rootCmd.registerSubCommands()
	rootCmd.Execute()
}

// registerSubCommands adds all subcommands to the root command
func (rc *RootCommand) registerSubCommands() {
	rc.baseCmd.AddCommand(codec.GetCommands()...)
	rc.baseCmd.AddCommand(
		config.GetCommand(&rc.cfgFile),
		store.GetCommand(&rc.config),
		version.GetCommand(),
	)
}

func decodeExportOption(f reflect.Type, t reflect.Type, data any) (any, error) {
	if f.Kind() == reflect.String && t == reflect.TypeOf(telemetry.ExportOption(0)) {
		s, _ := data.(string)
		var res telemetry.ExportOption
		if err := res.Set(s); err != nil {
			return nil, err
		}
		return res, nil
	}
	return data, nil
}

func updateDecoderConfig(config *mapstructure.DecoderConfig) {
	config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		config.DecodeHook,
		decodeExportOption,
	)
}

// loadConfig loads the configuration from the config file
func (rc *RootCommand) loadConfig() error {
	err := viper.ReadInConfig()

	// Create file if it doesn't exist
	if errors.As(err, new(viper.ConfigFileNotFoundError)) || errors.Is(err, os.ErrNotExist) {
		logger.Info().Msg("Config file not found. Creating a new one...")

		path, errCfg := common.InitDefaultConfig(rc.cfgFile)
		if errCfg != nil {
			logger.Error().Err(errCfg).Msg("Failed to create config")
			return errCfg
		}

		logger.Info().Msgf("Config file created successfully at %s", path)
		logger.Info().Msgf("set via `%s config set <option> <value>` or via config file", os.Args[0])
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := viper.UnmarshalKey(common.ConfigSection, &rc.config, updateDecoderConfig); err != nil {
		return fmt.Errorf("unable to decode config: %w", err)
	}

	logger.Debug().Msg("Configuration loaded successfully")
	return nil
}

// Execute runs the root command and handles any errors
func (rc *RootCommand) Execute() {
	if err := rc.baseCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		os.Exit(1)
	}
}
