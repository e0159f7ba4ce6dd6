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

// Package writer defines the Writer capability set of §4.4 and its three
// implementations: Console, Disk, ObjectStorage. All three share one
// contract - read the last persisted watermark, then consume blocks
// forever persisting podpings and advancing the watermark - chosen at
// startup by the Syncer from configuration, with static dispatch via this
// interface rather than any plugin mechanism (§9).
package writer

import (
	"context"

	"github.com/SilasVt/podpingd/hive/scanner"
	"github.com/SilasVt/podpingd/internal/broadcast"
)

//go:generate mockgen -destination=../internal/mocks/mock_writer.go -package=mocks github.com/SilasVt/podpingd/writer Writer

// Writer is the capability set every sink implements.
type Writer interface {
	// GetLastBlock reads the persisted watermark. It returns (0, false) when
	// the watermark is absent or unparsable; it only returns a non-nil error
	// for an I/O failure the writer cannot classify as "not found" (§4.4).
	GetLastBlock(ctx context.Context) (uint64, bool, error)

	// Start consumes single blocks forever in streaming mode. Channel
	// closure is fatal for streaming writers (§4.4).
	Start(ctx context.Context, sub *broadcast.Subscription[scanner.Block]) error

	// StartBatch consumes block batches forever in batched mode. Channel
	// closure is clean shutdown for batched writers (§4.4).
	StartBatch(ctx context.Context, sub *broadcast.Subscription[[]scanner.Block]) error
}
