package codec

import (
	"fmt"
	"strings"

	"github.com/NilFoundation/receipts/nil/cmd/receipts/internal/common"
	"github.com/NilFoundation/receipts/nil/internal/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/spf13/cobra"
)

const (
	rawFlag  = "raw"
	testFlag = "test"
)

type decodeParams struct {
	raw bool
}

type bloomParams struct {
	tests []string
}

// GetCommands returns the commands converting receipts between the wire and JSON forms.
func GetCommands() []*cobra.Command {
	return []*cobra.Command{
		decodeCommand(),
		encodeCommand(),
		bloomCommand(),
	}
}

func decodeCommand() *cobra.Command {
	params := &decodeParams{}

	cmd := &cobra.Command{
		Use:   "decode [hex | -]",
		Short: "Decode an RLP-encoded receipt into JSON",
		Long: "Decode an RLP-encoded receipt into JSON. The bloom found on the wire is printed as is; " +
			"pass \"-\" to read the input from stdin.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd, args[0], params)
		},
	}

	cmd.Flags().BoolVar(&params.raw, rawFlag, false, "Drop the logs bloom from the output")

	return cmd
}

func runDecode(cmd *cobra.Command, arg string, params *decodeParams) error {
	input, err := common.ReadInput(cmd, arg)
	if err != nil {
		return err
	}
	data, err := decodeHex(string(input))
	if err != nil {
		return err
	}

	var receipt types.SealedReceipt
	if err := rlp.DecodeBytes(data, &receipt); err != nil {
		return fmt.Errorf("failed to decode receipt: %w", err)
	}
	if params.raw {
		return common.PrintJSON(cmd, receipt.Receipt())
	}
	return common.PrintJSON(cmd, receipt)
}

func encodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "encode [json | -]",
		Short: "Encode a JSON receipt into RLP",
		Long: "Encode a JSON receipt into RLP. The \"logsBloom\" key is written verbatim when present, " +
			"otherwise it is computed from the logs.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := common.ReadInput(cmd, args[0])
			if err != nil {
				return err
			}
			receipt, err := common.ParseReceipt(input)
			if err != nil {
				return err
			}
			data, err := rlp.EncodeToBytes(receipt)
			if err != nil {
				return fmt.Errorf("failed to encode receipt: %w", err)
			}
			common.PrintLine(cmd, "%s", hexutil.Encode(data))
			return nil
		},
	}
}

func bloomCommand() *cobra.Command {
	params := &bloomParams{}

	cmd := &cobra.Command{
		Use:          "bloom [json | -]",
		Short:        "Compute the logs bloom of a JSON receipt",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBloom(cmd, args[0], params)
		},
	}

	cmd.Flags().StringSliceVar(&params.tests, testFlag, nil,
		"Hex values (addresses or topics) to check for membership in the bloom")

	return cmd
}

func runBloom(cmd *cobra.Command, arg string, params *bloomParams) error {
	input, err := common.ReadInput(cmd, arg)
	if err != nil {
		return err
	}
	receipt, err := common.ParseReceipt(input)
	if err != nil {
		return err
	}

	// the logs are authoritative here, a "logsBloom" key is ignored
	bloom := receipt.Receipt().BloomSlow()
	common.PrintLine(cmd, "%s", hexutil.Encode(bloom[:]))

	for _, test := range params.tests {
		value, err := decodeHex(test)
		if err != nil {
			return err
		}
		common.PrintLine(cmd, "%s: %t", test, bloom.Test(value))
	}
	return nil
}

func decodeHex(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	data, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return data, nil
}
