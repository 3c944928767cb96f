package filters

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NilFoundation/receipts/nil/common"
	"github.com/NilFoundation/receipts/nil/internal/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var ErrInvalidRange = errors.New("invalid block range")

// FilterQuery contains options for contract log filtering.
type FilterQuery struct {
	FromBlock *types.BlockNumber // beginning of the queried range, nil means the first stored block
	ToBlock   *types.BlockNumber // end of the range, nil means latest block
	Addresses []common.Address   // restricts matches to events created by specific contracts

	// The Topic list restricts matches to particular event topics. Each event has a list
	// of topics. Topics matches a prefix of that list. An empty element slice matches any
	// topic. Non-empty elements represent an alternative that matches any of the
	// contained topics.
	//
	// Examples:
	// {} or nil          matches any topic list
	// {{A}}              matches topic A in first position
	// {{}, {B}}          matches any topic in first position AND B in second position
	// {{A}, {B}}         matches topic A in first position AND B in second position
	// {{A, B}, {C, D}}   matches topic (A OR B) in first position AND (C OR D) in second position
	Topics [][]common.Hash
}

func (args *FilterQuery) UnmarshalJSON(data []byte) error {
	type input struct {
		FromBlock *hexutil.Uint64 `json:"fromBlock"`
		ToBlock   *hexutil.Uint64 `json:"toBlock"`
		Addresses any             `json:"address"`
		Topics    []any           `json:"topics"`
	}

	var raw input
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.FromBlock != nil {
		from := types.BlockNumber(*raw.FromBlock)
		args.FromBlock = &from
	}
	if raw.ToBlock != nil {
		to := types.BlockNumber(*raw.ToBlock)
		args.ToBlock = &to
	}
	if args.FromBlock != nil && args.ToBlock != nil && *args.FromBlock > *args.ToBlock {
		return fmt.Errorf("%w: from %s > to %s", ErrInvalidRange, args.FromBlock, args.ToBlock)
	}

	args.Addresses = []common.Address{}

	if raw.Addresses != nil {
		// raw.Address can contain a single address or an array of addresses
		switch rawAddr := raw.Addresses.(type) {
		case []any:
			for i, addr := range rawAddr {
				strAddr, ok := addr.(string)
				if !ok {
					return fmt.Errorf("non-string address at index %d", i)
				}
				decoded, err := decodeAddress(strAddr)
				if err != nil {
					return fmt.Errorf("invalid address at index %d: %w", i, err)
				}
				args.Addresses = append(args.Addresses, decoded)
			}
		case string:
			addr, err := decodeAddress(rawAddr)
			if err != nil {
				return fmt.Errorf("invalid address: %w", err)
			}
			args.Addresses = []common.Address{addr}
		default:
			return errors.New("invalid addresses in query")
		}
	}

	// topics is an array consisting of strings and/or arrays of strings.
	// JSON null values match any topic in their position.
	if len(raw.Topics) > 0 {
		args.Topics = make([][]common.Hash, len(raw.Topics))
		for i, t := range raw.Topics {
			switch topic := t.(type) {
			case nil:
				// ignore topic when matching logs

			case string:
				// match specific topic
				top, err := decodeTopic(topic)
				if err != nil {
					return err
				}
				args.Topics[i] = []common.Hash{top}

			case []any:
				// or case e.g. [null, "topic0", "topic1"]
				for _, rawTopic := range topic {
					if rawTopic == nil {
						// null component, match all
						args.Topics[i] = nil
						break
					}
					str, ok := rawTopic.(string)
					if !ok {
						return errors.New("invalid topic(s)")
					}
					parsed, err := decodeTopic(str)
					if err != nil {
						return err
					}
					args.Topics[i] = append(args.Topics[i], parsed)
				}
			default:
				return errors.New("invalid topic(s)")
			}
		}
	}

	return nil
}

func decodeAddress(s string) (common.Address, error) {
	b, err := hexutil.Decode(s)
	if err == nil && len(b) != common.AddrSize {
		err = fmt.Errorf("hex has invalid length %d after decoding; expected %d for address", len(b), common.AddrSize)
	}
	return common.BytesToAddress(b), err
}

func decodeTopic(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err == nil && len(b) != common.HashSize {
		err = fmt.Errorf("hex has invalid length %d after decoding; expected %d for topic", len(b), common.HashSize)
	}
	return common.BytesToHash(b), err
}
