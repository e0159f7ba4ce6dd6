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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SilasVt/podpingd/hive/podping"
	"github.com/SilasVt/podpingd/hive/scanner"
)

func sampleBlock() scanner.Block {
	return scanner.Block{
		BlockNum:  777,
		Timestamp: time.Date(2024, 6, 7, 8, 9, 10, 0, time.UTC),
		Transactions: []scanner.BlockTransaction{
			{
				TxID: "deadbeef",
				Podpings: []podping.Podping{
					{Variant: podping.V11, Reason: "update", Medium: "podcast", Iris: []string{"https://example.com/feed.xml"}, SessionID: "abc", TimestampNs: 123},
				},
			},
		},
	}
}

// TestDiskWriter_S4_V11FilenameAndPath exercises scenario S4 of §8: a V1.1
// podping at block 777, tx deadbeef, timestamp 2024-06-07T08:09:10Z.
func TestDiskWriter_S4_V11FilenameAndPath(t *testing.T) {
	root := t.TempDir()
	w := NewDiskWriter(root)

	require.NoError(t, w.writeBlock(sampleBlock()))
	require.NoError(t, w.writeWatermark(777))

	wantPath := filepath.Join(root, "2024", "6", "7", "8", "9", "10", "777_deadbeef_abc_123.json")
	data, err := os.ReadFile(wantPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"session_id":"abc"`)
	assert.Contains(t, string(data), `"timestamp_ns":123`)

	block, ok, err := w.GetLastBlock(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 777, block)
}

// TestDiskWriter_Idempotence covers invariant 5 of §8: replaying the same
// block twice yields byte-identical files and the same watermark.
func TestDiskWriter_Idempotence(t *testing.T) {
	root := t.TempDir()
	w := NewDiskWriter(root)
	b := sampleBlock()

	require.NoError(t, w.writeBlock(b))
	require.NoError(t, w.writeWatermark(b.BlockNum))
	path := filepath.Join(root, "2024", "6", "7", "8", "9", "10", "777_deadbeef_abc_123.json")
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, w.writeBlock(b))
	require.NoError(t, w.writeWatermark(b.BlockNum))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	block, ok, err := w.GetLastBlock(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 777, block)
}

// TestDiskWriter_EmptyBlockAdvancesWatermark covers invariant 4 of §8: a
// block with no transactions still advances the watermark.
func TestDiskWriter_EmptyBlockAdvancesWatermark(t *testing.T) {
	root := t.TempDir()
	w := NewDiskWriter(root)

	empty := scanner.Block{BlockNum: 42, Timestamp: time.Now().UTC()}
	require.NoError(t, w.writeBlock(empty))
	require.NoError(t, w.writeWatermark(empty.BlockNum))

	block, ok, err := w.GetLastBlock(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 42, block)
}

func TestDiskWriter_GetLastBlock_AbsentWhenNoFile(t *testing.T) {
	w := NewDiskWriter(t.TempDir())
	_, ok, err := w.GetLastBlock(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiskWriter_NonV11FilenameUsesIndex(t *testing.T) {
	root := t.TempDir()
	w := NewDiskWriter(root)

	b := scanner.Block{
		BlockNum:  100,
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Transactions: []scanner.BlockTransaction{
			{TxID: "abc123", Podpings: []podping.Podping{
				{Variant: podping.V03, Iris: []string{"https://example.com/a.xml"}},
				{Variant: podping.V03, Iris: []string{"https://example.com/b.xml"}},
			}},
		},
	}
	require.NoError(t, w.writeBlock(b))

	dir := filepath.Join(root, "2024", "1", "2", "3", "4", "5")
	_, err := os.Stat(filepath.Join(dir, "100_abc123_0.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "100_abc123_1.json"))
	assert.NoError(t, err)
}
