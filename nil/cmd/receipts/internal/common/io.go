package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/NilFoundation/receipts/nil/internal/types"
	"github.com/spf13/cobra"
)

// StdinArg makes a command read its input from stdin.
const StdinArg = "-"

var ErrEmptyInput = errors.New("empty input")

// ReadInput returns the argument itself or, for StdinArg, everything on stdin.
func ReadInput(cmd *cobra.Command, arg string) ([]byte, error) {
	var data []byte
	if arg == StdinArg {
		var err error
		if data, err = io.ReadAll(cmd.InOrStdin()); err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
	} else {
		data = []byte(arg)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	return data, nil
}

// ParseReceipt reads a receipt object. A "logsBloom" key is taken verbatim,
// otherwise the bloom is computed from the logs.
func ParseReceipt(data []byte) (types.SealedReceipt, error) {
	var receipt types.ConsensusReceipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return types.SealedReceipt{}, fmt.Errorf("invalid receipt: %w", err)
	}

	var bloom struct {
		LogsBloom *types.Bloom `json:"logsBloom"`
	}
	if err := json.Unmarshal(data, &bloom); err != nil {
		return types.SealedReceipt{}, fmt.Errorf("invalid receipt bloom: %w", err)
	}
	if bloom.LogsBloom != nil {
		return types.NewReceiptWithBloom[types.ConsensusReceipt, *types.Log](receipt, *bloom.LogsBloom), nil
	}
	return receipt.WithBloom(), nil
}

// ParseReceipts reads a JSON array of receipt objects.
func ParseReceipts(data []byte) ([]types.SealedReceipt, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("expected an array of receipts: %w", err)
	}
	res := make([]types.SealedReceipt, 0, len(raw))
	for i, r := range raw {
		receipt, err := ParseReceipt(r)
		if err != nil {
			return nil, fmt.Errorf("receipt %d: %w", i, err)
		}
		res = append(res, receipt)
	}
	return res, nil
}

// PrintJSON writes the value indented, followed by a newline.
func PrintJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

// PrintLine writes a single line to the command output.
func PrintLine(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), strings.TrimSuffix(format, "\n")+"\n", args...)
}
