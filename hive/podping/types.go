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

// Package podping defines the Podping tagged value (§3) and the pure
// decoder that recognizes it inside a custom-JSON operation (§4.2). The
// podping_schemas crate referenced by the original implementation is
// treated as a black box by the spec; this package is podpingd's own
// from-scratch, documented completion of that box.
package podping

import "encoding/json"

// Variant tags the five recognized on-chain podping schema versions.
type Variant string

const (
	V0  Variant = "v0"
	V02 Variant = "v0.2"
	V03 Variant = "v0.3"
	V10 Variant = "v1.0"
	V11 Variant = "v1.1"
)

// Podping is the semantic value common to every variant, plus the V1.1-only
// session/timestamp fields. The Variant tag is preserved end to end so
// writers can render variant-specific file names (§3, §4.4.2).
type Podping struct {
	Variant Variant  `json:"variant"`
	Reason  string   `json:"reason"`
	Medium  string   `json:"medium"`
	Iris    []string `json:"iris"`

	// V11 only.
	SessionID   string `json:"session_id,omitempty"`
	TimestampNs int64  `json:"timestamp_ns,omitempty"`
}

// MarshalJSON renders the wire form written by writers: the tagged
// variant plus only the fields that variant carries, so V0-V10 files never
// contain a stray session_id/timestamp_ns key.
func (p Podping) MarshalJSON() ([]byte, error) {
	type wire struct {
		Version     string   `json:"version"`
		Reason      string   `json:"reason"`
		Medium      string   `json:"medium"`
		Iris        []string `json:"iris"`
		SessionID   string   `json:"session_id,omitempty"`
		TimestampNs int64    `json:"timestamp_ns,omitempty"`
	}
	w := wire{
		Version: string(p.Variant),
		Reason:  p.Reason,
		Medium:  p.Medium,
		Iris:    p.Iris,
	}
	if p.Variant == V11 {
		w.SessionID = p.SessionID
		w.TimestampNs = p.TimestampNs
	}
	return json.Marshal(w)
}
