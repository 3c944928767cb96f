package filters

import (
	"context"
	"testing"

	"github.com/NilFoundation/receipts/nil/common"
	"github.com/NilFoundation/receipts/nil/internal/db"
	"github.com/NilFoundation/receipts/nil/internal/execution"
	"github.com/NilFoundation/receipts/nil/internal/types"
	"github.com/stretchr/testify/suite"
)

type SuiteFilters struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	stor   db.DB
	cache  *execution.ReceiptsCache
}

func (s *SuiteFilters) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	var err error
	s.stor, err = db.NewBadgerDbInMemory()
	s.Require().NoError(err)
	s.cache, err = execution.NewReceiptsCache(s.stor, execution.DefaultReceiptsCacheSize)
	s.Require().NoError(err)
}

func (s *SuiteFilters) TearDownTest() {
	s.cancel()
	s.stor.Close()
}

func sealed(logs ...*types.Log) types.SealedReceipt {
	return types.NewReceipt(types.NewEip658Status(true), types.NewCumulativeGas(1), logs).WithBloom()
}

func (s *SuiteFilters) recv(f *Filter) types.Log {
	s.T().Helper()

	log := <-f.LogsChannel()
	s.Require().NotNil(log)
	return log.Log
}

func (s *SuiteFilters) TestMatcherOneReceipt() {
	filters := NewFiltersManager(s.ctx, s.stor, s.cache, true)
	s.NotNil(filters)

	address1 := common.HexToAddress("0x111111111")
	logs := []*types.Log{
		{
			Address: address1,
			Topics:  []common.Hash{{0x01}, {0x02}},
			Data:    []byte{0xaa, 0xaa},
		},
		{
			Address: address1,
			Topics:  []common.Hash{{0x03}, {0x02}, {0x05}},
			Data:    []byte{0xbb, 0xbb},
		},
		{
			Address: address1,
			Topics:  []common.Hash{},
			Data:    []byte{0xcc, 0xcc},
		},
	}
	receipts := []types.SealedReceipt{sealed(logs...)}

	// All logs with Address == address1
	id, f := filters.NewFilter(&FilterQuery{Addresses: []common.Address{address1}})
	s.NotEmpty(id)
	s.NotNil(f)

	filters.process(1, receipts)
	s.Len(f.output, 3)
	s.Equal(*logs[0], s.recv(f))
	s.Equal(*logs[1], s.recv(f))
	s.Equal(*logs[2], s.recv(f))
	s.True(filters.RemoveFilter(id))
	s.False(filters.RemoveFilter(id))

	// Only logs with [1, 2] topics
	id, f = filters.NewFilter(&FilterQuery{Addresses: []common.Address{address1}, Topics: [][]common.Hash{{{0x01}}, {{0x02}}}})
	filters.process(1, receipts)
	s.Len(f.output, 1)
	s.Equal(*logs[0], s.recv(f))
	filters.RemoveFilter(id)

	// Only logs with [any, 2] topics
	id, f = filters.NewFilter(&FilterQuery{Addresses: []common.Address{address1}, Topics: [][]common.Hash{{}, {{0x02}}}})
	filters.process(1, receipts)
	s.Len(f.output, 2)
	s.Equal(*logs[0], s.recv(f))
	s.Equal(*logs[1], s.recv(f))
	filters.RemoveFilter(id)

	// Topic disjunction: [1 or 3]
	id, f = filters.NewFilter(&FilterQuery{Topics: [][]common.Hash{{{0x01}, {0x03}}}})
	filters.process(1, receipts)
	s.Len(f.output, 2)
	s.Equal(*logs[0], s.recv(f))
	s.Equal(*logs[1], s.recv(f))
	filters.RemoveFilter(id)
}

func (s *SuiteFilters) TestMatcherTwoReceipts() {
	filters := NewFiltersManager(s.ctx, s.stor, s.cache, true)

	address1 := common.HexToAddress("0x1111111111")
	address2 := common.HexToAddress("0x2222222222")

	logs1 := []*types.Log{
		{Address: address1, Topics: []common.Hash{{0x01}, {0x02}, {0x03}}, Data: []byte{0xaa, 0xaa}},
		{Address: address1, Topics: []common.Hash{{0x03}}, Data: []byte{0xbb, 0xbb}},
		{Address: address1, Topics: []common.Hash{}, Data: []byte{0xcc, 0xcc}},
		{Address: address1, Topics: []common.Hash{{0x03}, {0x04}, {0x03}}, Data: []byte{0xaa, 0xaa}},
	}
	logs2 := []*types.Log{
		{Address: address2, Topics: []common.Hash{{0x01}, {0x02}, {0x03}}, Data: []byte{0xaa, 0xaa}},
		{Address: address2, Topics: []common.Hash{{0x03}, {0x01}, {0x03}}, Data: []byte{0xbb, 0xbb}},
	}
	receipts := []types.SealedReceipt{sealed(logs1...), sealed(logs2...)}

	// All logs
	id, f := filters.NewFilter(&FilterQuery{})
	filters.process(1, receipts)
	s.Require().Len(f.output, 6)
	for i := range 6 {
		log := <-f.LogsChannel()
		s.Equal(uint(i), uint(log.LogIndex))
		if i < 4 {
			s.Equal(*logs1[i], log.Log)
			s.Equal(uint(0), uint(log.TxIndex))
		} else {
			s.Equal(*logs2[i-4], log.Log)
			s.Equal(uint(1), uint(log.TxIndex))
		}
	}
	filters.RemoveFilter(id)

	// All logs of address2
	id, f = filters.NewFilter(&FilterQuery{Addresses: []common.Address{address2}})
	filters.process(1, receipts)
	s.Require().Len(f.output, 2)
	s.Equal(*logs2[0], s.recv(f))
	s.Equal(*logs2[1], s.recv(f))
	filters.RemoveFilter(id)

	// address1: nil, nil, 3
	id, f = filters.NewFilter(&FilterQuery{
		Addresses: []common.Address{address1},
		Topics:    [][]common.Hash{{}, {}, {{0x03}}},
	})
	filters.process(1, receipts)
	s.Require().Len(f.LogsChannel(), 2)
	s.Equal(*logs1[0], s.recv(f))
	s.Equal(*logs1[3], s.recv(f))
	filters.RemoveFilter(id)

	// any address: nil, 2
	id, f = filters.NewFilter(&FilterQuery{Topics: [][]common.Hash{{}, {{2}}}})
	filters.process(1, receipts)
	s.Require().Len(f.LogsChannel(), 2)
	s.Equal(*logs1[0], s.recv(f))
	s.Equal(*logs2[0], s.recv(f))
	filters.RemoveFilter(id)

	// any address: 3, nil, 3
	id, f = filters.NewFilter(&FilterQuery{Topics: [][]common.Hash{{{3}}, {}, {{3}}}})
	filters.process(1, receipts)
	s.Require().Len(f.LogsChannel(), 2)
	s.Equal(*logs1[3], s.recv(f))
	s.Equal(*logs2[1], s.recv(f))
	filters.RemoveFilter(id)

	// any address: 3
	id, f = filters.NewFilter(&FilterQuery{Topics: [][]common.Hash{{{0x03}}}})
	filters.process(1, receipts)
	s.Require().Len(f.LogsChannel(), 3)
	s.Equal(*logs1[1], s.recv(f))
	s.Equal(*logs1[3], s.recv(f))
	s.Equal(*logs2[1], s.recv(f))
	filters.RemoveFilter(id)
}

func (s *SuiteFilters) storeBlock(number types.BlockNumber, receipts ...types.SealedReceipt) {
	s.T().Helper()

	builder := execution.NewBlockReceiptsBuilder(number, nil)
	for _, r := range receipts {
		s.Require().NoError(builder.Append(r.Receipt()))
	}
	s.Require().NoError(s.cache.Store(s.ctx, builder.Seal()))
}

func (s *SuiteFilters) TestPoll() {
	filters := NewFiltersManager(s.ctx, s.stor, s.cache, true)
	address := common.HexToAddress("0x01")

	// Nothing stored yet.
	s.Require().NoError(filters.poll())

	s.storeBlock(1, sealed(types.NewLog(address, []byte{}, []common.Hash{{0x01}})))
	s.Require().NoError(filters.poll())

	_, f := filters.NewFilter(&FilterQuery{Addresses: []common.Address{address}})

	s.storeBlock(2, sealed(types.NewLog(address, []byte{}, []common.Hash{{0x02}})))
	s.storeBlock(4, sealed(types.NewLog(address, []byte{}, []common.Hash{{0x04}})))
	s.Require().NoError(filters.poll())

	s.Require().Len(f.output, 2)
	log := <-f.LogsChannel()
	s.Equal(uint64(2), uint64(log.BlockNumber))
	log = <-f.LogsChannel()
	s.Equal(uint64(4), uint64(log.BlockNumber))

	s.Require().NoError(filters.poll())
	s.Empty(f.output)
}

func (s *SuiteFilters) TestGetLogs() {
	filters := NewFiltersManager(s.ctx, s.stor, s.cache, true)
	address1 := common.HexToAddress("0x01")
	address2 := common.HexToAddress("0x02")

	logs, err := filters.GetLogs(s.ctx, &FilterQuery{})
	s.Require().NoError(err)
	s.Empty(logs)

	for i := range types.BlockNumber(5) {
		s.storeBlock(i,
			sealed(types.NewLog(address1, []byte{}, []common.Hash{{byte(i)}})),
			sealed(types.NewLog(address2, []byte{}, []common.Hash{{0xff}})),
		)
	}

	logs, err = filters.GetLogs(s.ctx, &FilterQuery{Addresses: []common.Address{address1}})
	s.Require().NoError(err)
	s.Len(logs, 5)

	from, to := types.BlockNumber(1), types.BlockNumber(3)
	logs, err = filters.GetLogs(s.ctx, &FilterQuery{FromBlock: &from, ToBlock: &to, Topics: [][]common.Hash{{{0xff}}}})
	s.Require().NoError(err)
	s.Require().Len(logs, 3)
	for i, log := range logs {
		s.Equal(address2, log.Address)
		s.Equal(uint64(i+1), uint64(log.BlockNumber))
		s.Equal(uint(1), uint(log.TxIndex))
		s.Equal(uint(1), uint(log.LogIndex))
	}

	logs, err = filters.GetLogs(s.ctx, &FilterQuery{Topics: [][]common.Hash{{{0x03}}}})
	s.Require().NoError(err)
	s.Require().Len(logs, 1)
	s.Equal(uint64(3), uint64(logs[0].BlockNumber))

	_, err = filters.GetLogs(s.ctx, &FilterQuery{FromBlock: &to, ToBlock: &from})
	s.Require().ErrorIs(err, ErrInvalidRange)
}

func TestFilters(t *testing.T) {
	t.Parallel()

	suite.Run(t, new(SuiteFilters))
}
