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

// Package watermark defines the on-disk/on-bucket wire format for the
// "last_updated_block" watermark file shared by DiskWriter and
// ObjectStorageWriter (§3, §4.4.2, §4.4.3): ASCII decimal, with an
// optional trailing newline, any parse failure treated as "absent".
package watermark

import (
	"strconv"
	"strings"
)

// Filename is the fixed basename of the watermark file/object, matching
// LAST_UPDATED_BLOCK_FILENAME in the original Rust writer trait.
const Filename = "last_updated_block"

// Parse decodes the contents of a watermark file. ok is false whenever the
// content cannot be interpreted as a block number - the caller must treat
// that as "absent", never as an error (§6).
func Parse(data []byte) (block uint64, ok bool) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Format renders a block number in the on-disk wire format.
func Format(block uint64) []byte {
	return []byte(strconv.FormatUint(block, 10))
}
