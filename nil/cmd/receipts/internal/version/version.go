package version

import (
	"github.com/NilFoundation/receipts/nil/cmd/receipts/internal/common"
	"github.com/NilFoundation/receipts/nil/common/version"
	"github.com/spf13/cobra"
)

const appTitle = "=nil; receipts"

func GetCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "version",
		Short:        "Get current version",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			common.PrintLine(cmd, "%s", version.BuildVersionString(appTitle))
		},
	}
}
