/*
 * Copyright (c) 2024 Gates Solutions LLC.
 *
 *      This file is part of podpingd.
 *
 *     podpingd is free software: you can redistribute it and/or modify it under the terms of the GNU Lesser General Public License as published by the Free Software Foundation, either version 3 of the License, or (at your option) any later version.
 *
 *     podpingd is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU Lesser General Public License for more details.
 *
 *     You should have received a copy of the GNU Lesser General Public License along with podpingd. If not, see <https://www.gnu.org/licenses/>.
 */

package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SilasVt/podpingd/hive/jsonrpc"
	"github.com/SilasVt/podpingd/internal/mocks"
)

func rawBlock(n uint64) *jsonrpc.RawBlock {
	return &jsonrpc.RawBlock{BlockNum: n, Timestamp: time.Unix(int64(n), 0).UTC()}
}

// TestFetchRange_SkipsGoneBlocksAndAdvancesCursor exercises §4.3's
// livelock-prevention requirement: a corrupted envelope (BlockGone) is
// logged and skipped, but the returned cursor still advances past it.
func TestFetchRange_SkipsGoneBlocksAndAdvancesCursor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rpc := mocks.NewMockClient(ctrl)
	rpc.EXPECT().GetBlockRange(gomock.Any(), uint64(10), uint64(12)).Return(nil, jsonrpc.ErrRangeUnsupported)
	rpc.EXPECT().GetBlock(gomock.Any(), uint64(10)).Return(nil, jsonrpc.BlockGone, nil)
	rpc.EXPECT().GetBlock(gomock.Any(), uint64(11)).Return(rawBlock(11), jsonrpc.BlockOK, nil)
	rpc.EXPECT().GetBlock(gomock.Any(), uint64(12)).Return(nil, jsonrpc.BlockGone, nil)

	s := New(rpc, 0, false)
	blocks, nextCursor, err := s.fetchRange(context.Background(), 10, 12)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.EqualValues(t, 11, blocks[0].BlockNum)
	assert.EqualValues(t, 13, nextCursor, "cursor must advance past every attempted block, including skipped ones")
}

// TestFetchRange_AllGoneStillAdvances is the degenerate case of the above:
// every block in the range fails structural parsing, yet the cursor still
// moves past the whole range rather than livelocking on it.
func TestFetchRange_AllGoneStillAdvances(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rpc := mocks.NewMockClient(ctrl)
	rpc.EXPECT().GetBlockRange(gomock.Any(), uint64(5), uint64(6)).Return(nil, jsonrpc.ErrRangeUnsupported)
	rpc.EXPECT().GetBlock(gomock.Any(), uint64(5)).Return(nil, jsonrpc.BlockGone, nil)
	rpc.EXPECT().GetBlock(gomock.Any(), uint64(6)).Return(nil, jsonrpc.BlockGone, nil)

	s := New(rpc, 0, false)
	blocks, nextCursor, err := s.fetchRange(context.Background(), 5, 6)
	require.NoError(t, err)
	assert.Empty(t, blocks)
	assert.EqualValues(t, 7, nextCursor)
}

// TestFetchRange_StopsAtNotYet ensures the per-block fallback stops at the
// first not-yet-produced block rather than spinning past the chain head.
func TestFetchRange_StopsAtNotYet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rpc := mocks.NewMockClient(ctrl)
	rpc.EXPECT().GetBlockRange(gomock.Any(), uint64(1), uint64(3)).Return(nil, jsonrpc.ErrRangeUnsupported)
	rpc.EXPECT().GetBlock(gomock.Any(), uint64(1)).Return(rawBlock(1), jsonrpc.BlockOK, nil)
	rpc.EXPECT().GetBlock(gomock.Any(), uint64(2)).Return(nil, jsonrpc.BlockNotYet, nil)

	s := New(rpc, 0, false)
	blocks, nextCursor, err := s.fetchRange(context.Background(), 1, 3)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.EqualValues(t, 2, nextCursor)
}

// TestFetchRange_UsesRangeCallWhenSupported checks the happy path keeps
// using the batched RPC call rather than falling back to per-block.
func TestFetchRange_UsesRangeCallWhenSupported(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rpc := mocks.NewMockClient(ctrl)
	rpc.EXPECT().GetBlockRange(gomock.Any(), uint64(1), uint64(3)).Return([]*jsonrpc.RawBlock{rawBlock(1), rawBlock(2), rawBlock(3)}, nil)

	s := New(rpc, 0, false)
	blocks, nextCursor, err := s.fetchRange(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Len(t, blocks, 3)
	assert.EqualValues(t, 4, nextCursor)
}

func TestExtractBlock_EmptyBlockStillConstructed(t *testing.T) {
	b := extractBlock(&jsonrpc.RawBlock{BlockNum: 9, Timestamp: time.Now()})
	assert.EqualValues(t, 9, b.BlockNum)
	assert.Empty(t, b.Transactions)
}

func TestExtractBlock_DropsOperationsWithNoPostingAuths(t *testing.T) {
	raw := &jsonrpc.RawBlock{
		BlockNum: 1,
		Transactions: []jsonrpc.Transaction{
			{TxID: "t1", Ops: []jsonrpc.CustomJSONOp{
				{ID: "podping", JSON: `{"url":"https://example.com/feed.xml"}`, RequiredPostingAuths: nil},
			}},
		},
	}
	b := extractBlock(raw)
	assert.Empty(t, b.Transactions)
}

func TestExtractBlock_GroupsPodpingsByTransaction(t *testing.T) {
	raw := &jsonrpc.RawBlock{
		BlockNum: 1,
		Transactions: []jsonrpc.Transaction{
			{TxID: "t1", Ops: []jsonrpc.CustomJSONOp{
				{ID: "podping", JSON: `{"url":"https://example.com/feed.xml"}`, RequiredPostingAuths: []string{"alice"}},
				{ID: "unrelated", JSON: `{}`, RequiredPostingAuths: []string{"alice"}},
			}},
		},
	}
	b := extractBlock(raw)
	require.Len(t, b.Transactions, 1)
	assert.Equal(t, "t1", b.Transactions[0].TxID)
	assert.Len(t, b.Transactions[0].Podpings, 1)
}
