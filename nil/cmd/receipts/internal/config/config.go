package config

import (
	"fmt"

	"github.com/NilFoundation/receipts/nil/cmd/receipts/internal/common"
	"github.com/NilFoundation/receipts/nil/common/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var Quiet = false

var logger = logging.NewLogger("configCommand")

var noConfigCmd = map[string]struct{}{
	"help": {},
	"init": {},
	"set":  {},
}

var supportedOptions = map[string]struct{}{
	common.DbPathField:         {},
	common.GcDiscardRatioField: {},
	common.GcFrequencyField:    {},
	common.CacheSizeField:      {},
	common.MetricsField:        {},
}

func GetCommand(configPath *string) *cobra.Command {
	configCmd := &cobra.Command{
		Use:          "config",
		Short:        "Configuration management",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			common.SetConfigFile(*configPath)

			if _, withoutConfig := noConfigCmd[cmd.Name()]; withoutConfig {
				return nil
			}

			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Initialize config file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := common.InitDefaultConfig(*configPath)
			if err != nil {
				logger.Error().Err(err).Msg("Failed to create config")
				return err
			}

			logger.Info().Msgf("Config initialized successfully: %s", path)
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:          "show",
		Short:        "Show the config file content",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !Quiet {
				common.PrintLine(cmd, "Config file: %s", viper.ConfigFileUsed())
			}
			section, ok := viper.AllSettings()[common.ConfigSection].(map[string]any)
			if !ok {
				return nil
			}
			// keys come out sorted
			data, err := yaml.Marshal(section)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	getCmd := &cobra.Command{
		Use:          "get [key]",
		Short:        "Get a config value",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := viper.Get(common.ConfigSection + "." + key)
			if value == nil {
				logger.Warn().Msgf("Key %q is not found in config", key)
				return nil
			}
			if Quiet {
				common.PrintLine(cmd, "%v", value)
			} else {
				common.PrintLine(cmd, "%s: %v", key, value)
			}
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:          "set [key] [value]",
		Short:        "Set a config value",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, supported := supportedOptions[args[0]]; !supported {
				return fmt.Errorf("key %q is not known", args[0])
			}

			if err := common.PatchConfig(map[string]any{
				args[0]: args[1],
			}); err != nil {
				logger.Error().Err(err).Msg("Failed to set config value")
				return err
			}
			logger.Info().Msgf("Set %q to %q", args[0], args[1])
			return nil
		},
	}

	configCmd.AddCommand(initCmd, showCmd, getCmd, setCmd)

	return configCmd
}
