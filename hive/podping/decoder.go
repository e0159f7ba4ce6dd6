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

package podping

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CustomJSONOp is the minimal shape of a Hive custom-JSON operation the
// decoder needs (§4.2). Fields unrelated to podping recognition (e.g.
// transaction metadata) live on the Scanner's side, not here.
type CustomJSONOp struct {
	ID                   string
	JSON                 string
	RequiredPostingAuths []string
}

// RejectReason labels why an operation produced zero podpings, used both
// for the podpingd_decoder_rejections_total metric and for warn logging.
type RejectReason string

const (
	RejectNone        RejectReason = ""
	RejectUnknownID   RejectReason = "unknown_id"
	RejectDecodeError RejectReason = "decode_error"
	RejectSchemaError RejectReason = "schema_error"
)

// isRecognizedID implements rule 1 of §4.2: the id must match one of the
// recognized podping operation identifiers. Unknown ids are rejected
// without logging ("silently rejected").
func isRecognizedID(id string) bool {
	if id == "podping" {
		return true
	}
	return strings.HasPrefix(id, "pp_")
}

// Decode implements §4.2 end to end: id recognition, JSON decoding, schema
// classification (most-specific variant first), and flattening of
// array-shaped payloads into a sequence of Podping values.
//
// Decode is pure: it performs no I/O and touches no shared state.
func Decode(op CustomJSONOp) ([]Podping, RejectReason, error) {
	if !isRecognizedID(op.ID) {
		return nil, RejectUnknownID, nil
	}

	var raw interface{}
	if err := json.Unmarshal([]byte(op.JSON), &raw); err != nil {
		return nil, RejectDecodeError, fmt.Errorf("malformed podping json: %w", err)
	}

	var candidates []interface{}
	switch v := raw.(type) {
	case []interface{}:
		candidates = v
	default:
		candidates = []interface{}{v}
	}

	podpings := make([]Podping, 0, len(candidates))
	for _, c := range candidates {
		m, ok := c.(map[string]interface{})
		if !ok {
			return nil, RejectSchemaError, fmt.Errorf("podping entry is not a JSON object")
		}
		pp, ok := classify(m)
		if !ok {
			return nil, RejectSchemaError, fmt.Errorf("podping entry matches no known schema variant")
		}
		podpings = append(podpings, pp)
	}

	return podpings, RejectNone, nil
}

// classify implements rule 3 of §4.2: try the most specific variant (V11)
// first, falling back to earlier versions. A value matching no variant
// fails classification entirely.
func classify(m map[string]interface{}) (Podping, bool) {
	if pp, ok := tryV11(m); ok {
		return pp, true
	}
	if pp, ok := tryVersioned(m, "1.0", V10); ok {
		return pp, true
	}
	if pp, ok := tryVersioned(m, "0.3", V03); ok {
		return pp, true
	}
	if pp, ok := tryVersioned(m, "0.2", V02); ok {
		return pp, true
	}
	if pp, ok := tryV0(m); ok {
		return pp, true
	}
	return Podping{}, false
}

func tryV11(m map[string]interface{}) (Podping, bool) {
	version, _ := m["version"].(string)
	if version != "1.1" {
		return Podping{}, false
	}
	sessionID, ok := m["session_id"].(string)
	if !ok {
		return Podping{}, false
	}
	tsFloat, ok := m["timestamp_ns"].(float64)
	if !ok {
		return Podping{}, false
	}
	iris, ok := stringSlice(m["iris"])
	if !ok || len(iris) == 0 {
		return Podping{}, false
	}
	reason, _ := m["reason"].(string)
	medium, _ := m["medium"].(string)

	return Podping{
		Variant:     V11,
		Reason:      reason,
		Medium:      medium,
		Iris:        iris,
		SessionID:   sessionID,
		TimestampNs: int64(tsFloat),
	}, true
}

// tryVersioned covers V02/V03/V10, which share the same {version, reason,
// medium, iris} shape and differ only in the version discriminator.
func tryVersioned(m map[string]interface{}, version string, variant Variant) (Podping, bool) {
	v, _ := m["version"].(string)
	if v != version {
		return Podping{}, false
	}
	iris, ok := stringSlice(m["iris"])
	if !ok || len(iris) == 0 {
		return Podping{}, false
	}
	reason, _ := m["reason"].(string)
	medium, _ := m["medium"].(string)

	return Podping{
		Variant: variant,
		Reason:  reason,
		Medium:  medium,
		Iris:    iris,
	}, true
}

// tryV0 covers the legacy, pre-versioning shape: no "version" key, a
// single "url" string instead of an "iris" array.
func tryV0(m map[string]interface{}) (Podping, bool) {
	if _, hasVersion := m["version"]; hasVersion {
		return Podping{}, false
	}
	url, ok := m["url"].(string)
	if !ok || url == "" {
		return Podping{}, false
	}
	reason, _ := m["reason"].(string)
	medium, _ := m["medium"].(string)

	return Podping{
		Variant: V0,
		Reason:  reason,
		Medium:  medium,
		Iris:    []string{url},
	}, true
}

func stringSlice(v interface{}) ([]string, bool) {
	arr, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
