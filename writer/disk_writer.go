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
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/SilasVt/podpingd/hive/podping"
	"github.com/SilasVt/podpingd/hive/scanner"
	"github.com/SilasVt/podpingd/internal/broadcast"
	"github.com/SilasVt/podpingd/internal/errs"
	"github.com/SilasVt/podpingd/internal/log"
	"github.com/SilasVt/podpingd/internal/metrics"
	"github.com/SilasVt/podpingd/internal/watermark"
)

var diskLogger = log.NewModuleLogger(log.ModuleDisk)

// DiskWriter persists podpings and the watermark under a root directory on
// the local filesystem, per §4.4.2.
type DiskWriter struct {
	root string
}

// NewDiskWriter builds a DiskWriter rooted at the given directory. The
// directory need not exist yet; it is created on demand.
func NewDiskWriter(root string) *DiskWriter {
	return &DiskWriter{root: root}
}

func (w *DiskWriter) watermarkPath() string {
	return filepath.Join(w.root, watermark.Filename)
}

// GetLastBlock implements Writer.GetLastBlock; a missing or unparsable
// watermark file is "absent", per §4.4 and §6, while any other read failure
// is returned as an error.
func (w *DiskWriter) GetLastBlock(ctx context.Context) (uint64, bool, error) {
	data, err := os.ReadFile(w.watermarkPath())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("disk writer: read watermark: %w", err)
	}
	block, ok := watermark.Parse(data)
	return block, ok, nil
}

func podpingFilename(blockNum uint64, txID string, index int, pp podping.Podping) string {
	if pp.Variant == podping.V11 {
		return fmt.Sprintf("%d_%s_%s_%d.json", blockNum, txID, pp.SessionID, pp.TimestampNs)
	}
	return fmt.Sprintf("%d_%s_%d.json", blockNum, txID, index)
}

// blockDir is the per-block directory of §4.4.2:
// <root>/<YYYY>/<M>/<D>/<H>/<Min>/<S>.
func (w *DiskWriter) blockDir(b scanner.Block) string {
	t := b.Timestamp
	return filepath.Join(w.root,
		strconv.Itoa(t.Year()), strconv.Itoa(int(t.Month())), strconv.Itoa(t.Day()),
		strconv.Itoa(t.Hour()), strconv.Itoa(t.Minute()), strconv.Itoa(t.Second()))
}

// writeBlock persists every podping in b unconditionally (overwrite,
// idempotent under retry). It returns an error only when a directory or
// file cannot be written; a podping that fails to marshal is logged and
// skipped.
func (w *DiskWriter) writeBlock(b scanner.Block) error {
	if len(b.Transactions) == 0 {
		diskLogger.Info("no podpings for block", "block", b.BlockNum)
		return nil
	}

	dir := w.blockDir(b)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("disk writer: mkdir %s: %w", dir, err)
	}

	for _, tx := range b.Transactions {
		for i, pp := range tx.Podpings {
			name := podpingFilename(b.BlockNum, tx.TxID, i, pp)
			path := filepath.Join(dir, name)

			enc, err := json.Marshal(pp)
			if err != nil {
				diskLogger.Error("failed to marshal podping", "block", b.BlockNum, "tx", tx.TxID, "err", err)
				continue
			}
			if err := os.WriteFile(path, enc, 0o644); err != nil {
				return fmt.Errorf("disk writer: write %s: %w", path, err)
			}
			diskLogger.Debug("wrote podping", "path", path)
		}
	}
	return nil
}

// writeWatermark writes the watermark atomically: temp file then rename,
// per §4.4.2.
func (w *DiskWriter) writeWatermark(block uint64) error {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return fmt.Errorf("disk writer: mkdir root %s: %w", w.root, err)
	}

	tmp, err := os.CreateTemp(w.root, "."+watermark.Filename+".tmp-*")
	if err != nil {
		return fmt.Errorf("disk writer: create watermark temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(watermark.Format(block)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("disk writer: write watermark temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("disk writer: close watermark temp file: %w", err)
	}
	if err := os.Rename(tmpName, w.watermarkPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("disk writer: rename watermark temp file: %w", err)
	}
	return nil
}

// Start implements Writer.Start.
func (w *DiskWriter) Start(ctx context.Context, sub *broadcast.Subscription[scanner.Block]) error {
	for {
		b, signal, err := sub.Recv(ctx)
		if err != nil {
			return err
		}
		switch sig := signal.(type) {
		case broadcast.Lagged:
			metrics.WriterLagTotal.Add(float64(sig.N))
			diskLogger.Warn("disk writer is lagging", "dropped", sig.N)
			continue
		case broadcast.Closed:
			return errs.FatalRuntime(ErrChannelClosed, "disk writer channel closed while streaming")
		}

		if err := w.writeBlock(b); err != nil {
			return err
		}
		if err := w.writeWatermark(b.BlockNum); err != nil {
			return err
		}
		metrics.WriterLastBlock.Set(float64(b.BlockNum))
	}
}

// StartBatch implements Writer.StartBatch: one watermark update per batch,
// for the highest block number in it (§4.4).
func (w *DiskWriter) StartBatch(ctx context.Context, sub *broadcast.Subscription[[]scanner.Block]) error {
	for {
		batch, signal, err := sub.Recv(ctx)
		if err != nil {
			return err
		}
		switch sig := signal.(type) {
		case broadcast.Lagged:
			metrics.WriterLagTotal.Add(float64(sig.N))
			diskLogger.Warn("disk writer is lagging", "dropped", sig.N)
			continue
		case broadcast.Closed:
			return nil
		}
		if len(batch) == 0 {
			continue
		}

		for _, b := range batch {
			if err := w.writeBlock(b); err != nil {
				return err
			}
		}
		last := batch[len(batch)-1].BlockNum
		if err := w.writeWatermark(last); err != nil {
			return err
		}
		metrics.WriterLastBlock.Set(float64(last))
	}
}
