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
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_SchemaCoverage(t *testing.T) {
	cases := []struct {
		name    string
		json    string
		variant Variant
	}{
		{"v0", `{"url": "https://example.com/feed.xml", "reason": "update", "medium": "podcast"}`, V0},
		{"v02", `{"version": "0.2", "iris": ["https://example.com/feed.xml"], "reason": "update", "medium": "podcast"}`, V02},
		{"v03", `{"version": "0.3", "iris": ["https://example.com/feed.xml"], "reason": "update", "medium": "podcast"}`, V03},
		{"v10", `{"version": "1.0", "iris": ["https://example.com/feed.xml"], "reason": "update", "medium": "podcast"}`, V10},
		{"v11", `{"version": "1.1", "session_id": "abc", "timestamp_ns": 123, "iris": ["https://example.com/feed.xml"], "reason": "update", "medium": "podcast"}`, V11},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pps, reason, err := Decode(CustomJSONOp{ID: "podping", JSON: tc.json, RequiredPostingAuths: []string{"alice"}})
			require.NoError(t, err)
			assert.Equal(t, RejectNone, reason)
			require.Len(t, pps, 1, "decoded podpings:\n%s", spew.Sdump(pps))
			assert.Equal(t, tc.variant, pps[0].Variant)
			assert.Equal(t, []string{"https://example.com/feed.xml"}, pps[0].Iris)
			if tc.variant == V11 {
				assert.Equal(t, "abc", pps[0].SessionID)
				assert.EqualValues(t, 123, pps[0].TimestampNs)
			}
		})
	}
}

func TestDecode_UnknownIDSilentlyRejected(t *testing.T) {
	pps, reason, err := Decode(CustomJSONOp{ID: "some_other_app", JSON: `{"url": "x"}`})
	assert.NoError(t, err)
	assert.Nil(t, pps)
	assert.Equal(t, RejectUnknownID, reason)
}

func TestDecode_PpPrefixRecognized(t *testing.T) {
	pps, reason, err := Decode(CustomJSONOp{ID: "pp_update_feed", JSON: `{"url": "https://example.com/feed.xml"}`})
	require.NoError(t, err)
	assert.Equal(t, RejectNone, reason)
	require.Len(t, pps, 1)
	assert.Equal(t, V0, pps[0].Variant)
}

func TestDecode_MalformedJSON(t *testing.T) {
	pps, reason, err := Decode(CustomJSONOp{ID: "podping", JSON: `{not valid json`})
	assert.Error(t, err)
	assert.Nil(t, pps)
	assert.Equal(t, RejectDecodeError, reason)
}

func TestDecode_UnrecognizedSchemaShape(t *testing.T) {
	pps, reason, err := Decode(CustomJSONOp{ID: "podping", JSON: `{"nonsense": true}`})
	assert.Error(t, err)
	assert.Nil(t, pps)
	assert.Equal(t, RejectSchemaError, reason)
}

func TestDecode_ArrayPayloadFlattened(t *testing.T) {
	json := `[{"url": "https://a.example/feed.xml"}, {"url": "https://b.example/feed.xml"}]`
	pps, reason, err := Decode(CustomJSONOp{ID: "podping", JSON: json})
	require.NoError(t, err)
	assert.Equal(t, RejectNone, reason)
	require.Len(t, pps, 2)
	assert.Equal(t, []string{"https://a.example/feed.xml"}, pps[0].Iris)
	assert.Equal(t, []string{"https://b.example/feed.xml"}, pps[1].Iris)
}

func TestDecode_MostSpecificVariantTriedFirst(t *testing.T) {
	// A v1.1 payload must never be misclassified as v1.0/v0.3/etc just
	// because it also happens to carry the shared {iris} shape.
	json := `{"version": "1.1", "session_id": "s", "timestamp_ns": 1, "iris": ["https://example.com/feed.xml"]}`
	pps, _, err := Decode(CustomJSONOp{ID: "podping", JSON: json})
	require.NoError(t, err)
	require.Len(t, pps, 1)
	assert.Equal(t, V11, pps[0].Variant)
}

func TestPodping_MarshalJSON_OmitsV11FieldsForOtherVariants(t *testing.T) {
	pp := Podping{Variant: V02, Iris: []string{"https://example.com/feed.xml"}}
	enc, err := pp.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(enc), "session_id")
	assert.NotContains(t, string(enc), "timestamp_ns")
}
