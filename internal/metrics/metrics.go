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

// Package metrics exposes the Prometheus instrumentation of the block-sync
// pipeline. It is ambient observability, not part of the pipeline's
// functional contract.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ScannerHeadBlock = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "podpingd_scanner_head_block",
		Help: "Latest irreversible block number reported by the RPC client.",
	})

	ScannerCursorBlock = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "podpingd_scanner_cursor_block",
		Help: "Next block number the scanner will fetch.",
	})

	WriterLastBlock = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "podpingd_writer_last_block",
		Help: "Highest block number whose podpings have been persisted to the sink.",
	})

	DecoderRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "podpingd_decoder_rejections_total",
		Help: "Count of custom-JSON operations rejected by the podping decoder, by reason.",
	}, []string{"reason"})

	WriterLagTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "podpingd_writer_lag_total",
		Help: "Count of Lagged signals observed by writers on the broadcast channel.",
	})

	BlockFetchErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "podpingd_rpc_errors_total",
		Help: "Count of transient RPC errors, by operation.",
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(
		ScannerHeadBlock,
		ScannerCursorBlock,
		WriterLastBlock,
		DecoderRejectionsTotal,
		WriterLagTotal,
		BlockFetchErrorsTotal,
	)
}
