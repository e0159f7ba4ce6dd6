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

// Package jsonrpc is the RPC Client of §4.1: typed calls to the chain node,
// with no caching and no business logic. The wire transport itself (JSON-RPC
// over HTTP) is an explicit Non-goal of the spec, so it is implemented
// directly on net/http and encoding/json rather than grounded on a
// third-party RPC client.
package jsonrpc

import (
	"context"
	"time"
)

// CustomJSONOp mirrors podping.CustomJSONOp; it is redeclared here to keep
// this package free of a dependency on hive/podping, matching the
// "pure wrapper, no business logic" contract of §4.1.
type CustomJSONOp struct {
	ID                   string
	JSON                 string
	RequiredPostingAuths []string
}

// Transaction is one transaction's relevant operations within a block.
type Transaction struct {
	TxID string
	Ops  []CustomJSONOp
}

// RawBlock is the block envelope returned by the chain node, before
// podping extraction. Timestamps are normalized to UTC by the client.
type RawBlock struct {
	BlockNum     uint64
	Timestamp    time.Time
	Transactions []Transaction
}

// BlockStatus distinguishes "doesn't exist yet" from "permanently gone"
// from a clean fetch, per §4.1.
type BlockStatus int

const (
	BlockOK BlockStatus = iota
	BlockNotYet
	BlockGone
)

//go:generate mockgen -destination=../../internal/mocks/mock_jsonrpc.go -package=mocks github.com/SilasVt/podpingd/hive/jsonrpc Client

// Client is the typed RPC surface the Scanner depends on.
type Client interface {
	// HeadBlockNum returns the latest irreversible block number. Transient
	// failures are retried with backoff indefinitely; it only returns an
	// error if ctx is cancelled mid-retry.
	HeadBlockNum(ctx context.Context) (uint64, error)

	// GetBlock fetches a single block. BlockNotYet is returned (with a nil
	// block) when n exceeds the current head; BlockGone on permanent
	// absence, which should not occur for historical blocks.
	GetBlock(ctx context.Context, n uint64) (*RawBlock, BlockStatus, error)

	// GetBlockRange fetches [lo, hi] inclusive in one round trip where the
	// node supports it. Callers must be prepared for it to return
	// ErrRangeUnsupported, in which case they fall back to GetBlock.
	GetBlockRange(ctx context.Context, lo, hi uint64) ([]*RawBlock, error)
}
