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

package writer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/SilasVt/podpingd/hive/scanner"
	"github.com/SilasVt/podpingd/internal/broadcast"
	"github.com/SilasVt/podpingd/internal/errs"
	"github.com/SilasVt/podpingd/internal/log"
	"github.com/SilasVt/podpingd/internal/metrics"
)

// ErrChannelClosed is the cause wrapped into errs.FatalRuntime when a
// streaming writer's broadcast channel closes while it is still active.
var ErrChannelClosed = errors.New("writer: broadcast channel closed")

var consoleLogger = log.NewModuleLogger(log.ModuleConsole)

// consoleLine is the JSON shape ConsoleWriter emits, one object per line,
// per §4.4.1's "block_num, tx_id, podping index/variant, and payload".
type consoleLine struct {
	BlockNum uint64      `json:"block_num"`
	TxID     string      `json:"tx_id"`
	Index    int         `json:"index"`
	Podping  interface{} `json:"podping"`
}

// ConsoleWriter is writer.enabled = false: podpings go to stdout as JSON
// lines, watermark operations are no-ops (§4.4.1).
type ConsoleWriter struct {
	out io.Writer
}

// NewConsoleWriter builds a ConsoleWriter over os.Stdout.
func NewConsoleWriter() *ConsoleWriter {
	return &ConsoleWriter{out: os.Stdout}
}

// GetLastBlock always reports the watermark absent, per §4.4.1.
func (w *ConsoleWriter) GetLastBlock(ctx context.Context) (uint64, bool, error) {
	return 0, false, nil
}

func (w *ConsoleWriter) writeBlock(b scanner.Block) {
	for _, tx := range b.Transactions {
		for i, pp := range tx.Podpings {
			line := consoleLine{BlockNum: b.BlockNum, TxID: tx.TxID, Index: i, Podping: pp}
			enc, err := json.Marshal(line)
			if err != nil {
				consoleLogger.Warn("failed to marshal podping for console output", "block", b.BlockNum, "tx", tx.TxID, "err", err)
				continue
			}
			fmt.Fprintln(w.out, string(enc))
		}
	}
}

// Start implements Writer.Start: one JSON line per podping, no watermark.
func (w *ConsoleWriter) Start(ctx context.Context, sub *broadcast.Subscription[scanner.Block]) error {
	for {
		b, signal, err := sub.Recv(ctx)
		if err != nil {
			return err
		}
		switch sig := signal.(type) {
		case broadcast.Lagged:
			metrics.WriterLagTotal.Add(float64(sig.N))
			consoleLogger.Warn("console writer is lagging", "dropped", sig.N)
			continue
		case broadcast.Closed:
			return errs.FatalRuntime(ErrChannelClosed, "console writer channel closed while streaming")
		}
		w.writeBlock(b)
		metrics.WriterLastBlock.Set(float64(b.BlockNum))
	}
}

// StartBatch implements Writer.StartBatch: channel closure is clean
// shutdown for batched writers (§4.4).
func (w *ConsoleWriter) StartBatch(ctx context.Context, sub *broadcast.Subscription[[]scanner.Block]) error {
	for {
		batch, signal, err := sub.Recv(ctx)
		if err != nil {
			return err
		}
		switch sig := signal.(type) {
		case broadcast.Lagged:
			metrics.WriterLagTotal.Add(float64(sig.N))
			consoleLogger.Warn("console writer is lagging", "dropped", sig.N)
			continue
		case broadcast.Closed:
			return nil
		}
		for _, b := range batch {
			w.writeBlock(b)
		}
		if len(batch) > 0 {
			metrics.WriterLastBlock.Set(float64(batch[len(batch)-1].BlockNum))
		}
	}
}
