package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/NilFoundation/receipts/nil/common"
	"github.com/NilFoundation/receipts/nil/internal/db"
	"github.com/NilFoundation/receipts/nil/internal/filters"
	"github.com/NilFoundation/receipts/nil/internal/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/suite"
)

var (
	address1 = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	address2 = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	topic1   = common.HexToHash("0x00000000000000000000000000000000000000000000000000000000000000b1")
	topic2   = common.HexToHash("0x00000000000000000000000000000000000000000000000000000000000000b2")
)

type SuiteStore struct {
	suite.Suite

	db    *db.BadgerDB
	store *Store
}

func (s *SuiteStore) SetupTest() {
	var err error
	s.db, err = db.NewBadgerDbInMemory()
	s.Require().NoError(err)

	s.store, err = newStore(s.db, db.NewDefaultBadgerDBOptions(), 16)
	s.Require().NoError(err)
}

func (s *SuiteStore) TearDownTest() {
	s.db.Close()
}

func (s *SuiteStore) opener() opener {
	return func(ctx context.Context) (*Store, error) {
		return s.store, nil
	}
}

func (s *SuiteStore) run(args ...string) (string, error) {
	s.T().Helper()

	cmd := getCommand(s.opener())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func receiptJSON(gas uint64, address common.Address, topics ...common.Hash) string {
	topicsJSON := make([]string, 0, len(topics))
	for _, t := range topics {
		topicsJSON = append(topicsJSON, `"`+t.Hex()+`"`)
	}
	return fmt.Sprintf(`{"status":"0x1","cumulativeGasUsed":"%s","logs":[{"address":"%s","topics":[%s],"data":"0x01"}]}`,
		hexutil.EncodeUint64(gas), address.Hex(), strings.Join(topicsJSON, ","))
}

func (s *SuiteStore) putBlock(block types.BlockNumber, receipts ...string) {
	s.T().Helper()

	out, err := s.run("put", "--block", block.String(), "["+strings.Join(receipts, ",")+"]")
	s.Require().NoError(err)

	var res putResult
	s.Require().NoError(json.Unmarshal([]byte(out), &res))
	s.Equal(hexutil.Uint64(block), res.Block)
	s.Equal(len(receipts), res.Receipts)
}

func (s *SuiteStore) TestPutGet() {
	s.putBlock(1, receiptJSON(100, address1, topic1), receiptJSON(300, address2, topic2))

	out, err := s.run("get", "--block", "1")
	s.Require().NoError(err)

	var receipts []types.SealedReceipt
	s.Require().NoError(json.Unmarshal([]byte(out), &receipts))
	s.Require().Len(receipts, 2)
	s.Equal(types.NewCumulativeGas(300), receipts[1].CumulativeGasUsed())
	s.Equal(receipts[1].Receipt().BloomSlow(), receipts[1].Bloom())

	out, err = s.run("get", "--block", "1", "--index", "0")
	s.Require().NoError(err)

	var receipt types.SealedReceipt
	s.Require().NoError(json.Unmarshal([]byte(out), &receipt))
	s.Equal(receipts[0], receipt)

	_, err = s.run("get", "--block", "1", "--index", "2")
	s.Require().ErrorIs(err, db.ErrIndexOutOfRange)

	_, err = s.run("get", "--block", "2")
	s.Require().ErrorIs(err, db.ErrKeyNotFound)

	_, err = s.run("get")
	s.Require().Error(err)
}

func (s *SuiteStore) TestPutInvalid() {
	_, err := s.run("put", "--block", "1", receiptJSON(100, address1))
	s.Require().ErrorContains(err, "expected an array of receipts")

	_, err = s.run("put", "--block", "x", "[]")
	s.Require().Error(err)
}

func (s *SuiteStore) TestFilter() {
	s.putBlock(1, receiptJSON(100, address1, topic1))
	s.putBlock(2, receiptJSON(100, address2, topic2))
	s.putBlock(3, receiptJSON(100, address1, topic2), receiptJSON(200, address1, topic1))

	filter := func(args ...string) []*types.IndexedLog {
		s.T().Helper()

		out, err := s.run(append([]string{"filter"}, args...)...)
		s.Require().NoError(err)
		var logs []*types.IndexedLog
		s.Require().NoError(json.Unmarshal([]byte(out), &logs))
		return logs
	}

	s.Len(filter(), 4)

	logs := filter("--address", address1.Hex(), "--topic", topic1.Hex())
	s.Require().Len(logs, 2)
	s.Equal(hexutil.Uint64(1), logs[0].BlockNumber)
	s.Equal(hexutil.Uint64(3), logs[1].BlockNumber)
	s.Equal(hexutil.Uint(1), logs[1].TxIndex)
	s.Equal(hexutil.Uint(1), logs[1].LogIndex)

	logs = filter("--from", "2", "--topic", topic1.Hex()+","+topic2.Hex())
	s.Len(logs, 3)

	logs = filter("--to", "2", "--address", address2.Hex())
	s.Require().Len(logs, 1)
	s.Equal(address2, logs[0].Address)

	logs = filter("--topic", "", "--address", address1.Hex()+","+address2.Hex())
	s.Len(logs, 4)

	s.Empty(filter("--from", "4", "--to", "10"))

	_, err := s.run("filter", "--from", "3", "--to", "1")
	s.Require().ErrorIs(err, filters.ErrInvalidRange)

	_, err = s.run("filter", "--address", "0x01")
	s.Require().ErrorContains(err, "invalid filter")
}

// lockedBuffer is written by the watch loop and read by the test.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (s *SuiteStore) TestWatch() {
	s.putBlock(1, receiptJSON(100, address1, topic1))

	out := &lockedBuffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, cmd, s.store, &filters.FilterQuery{
			Topics: [][]common.Hash{{topic2}},
		}, 10*time.Millisecond)
	}()

	// Blocks stored before the first poll are skipped, so keep adding until one shows up.
	block := types.BlockNumber(1)
	s.Require().Eventually(func() bool {
		block++
		s.putBlock(block, receiptJSON(100, address1, topic1), receiptJSON(200, address2, topic2))
		return strings.Contains(out.String(), "\n")
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	s.Require().NoError(<-done)

	line, _, _ := strings.Cut(out.String(), "\n")
	var log types.IndexedLog
	s.Require().NoError(json.Unmarshal([]byte(line), &log))
	s.Equal(address2, log.Address)
	s.Equal([]common.Hash{topic2}, log.Topics)
	s.Equal(hexutil.Uint(1), log.TxIndex)
	s.Greater(log.BlockNumber, hexutil.Uint64(1))
}

func TestSuiteStore(t *testing.T) {
	t.Parallel()

	suite.Run(t, new(SuiteStore))
}
