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

// Package syncer implements the Syncer orchestrator of §4.5: it computes a
// resume point, wires the Scanner producer to a Writer consumer over a
// bounded broadcast channel, and owns the pipeline's lifecycle.
package syncer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SilasVt/podpingd/hive/jsonrpc"
	"github.com/SilasVt/podpingd/hive/scanner"
	"github.com/SilasVt/podpingd/internal/broadcast"
	"github.com/SilasVt/podpingd/internal/errs"
	"github.com/SilasVt/podpingd/internal/log"
	"github.com/SilasVt/podpingd/writer"
)

var logger = log.NewModuleLogger(log.ModuleSyncer)

// DefaultRingCapacity is the bounded broadcast channel capacity recommended
// by §4.4.
const DefaultRingCapacity = 1024

// ShutdownGrace bounds how long a signal-driven shutdown waits for the
// active Writer call to return before the process exits anyway.
const ShutdownGrace = 10 * time.Second

// Config wires the Syncer's collaborators and scan mode.
type Config struct {
	RPC           jsonrpc.Client
	Writer        writer.Writer
	Scanner       *scanner.Scanner
	BatchMode     bool
	RingCapacity  int
	StartBlock    *uint64
	StartDatetime *time.Time
}

// Syncer orchestrates one run of the block-sync pipeline.
type Syncer struct {
	cfg Config

	running atomic.Bool
}

// New constructs a Syncer from cfg, defaulting RingCapacity to
// DefaultRingCapacity when unset.
func New(cfg Config) *Syncer {
	if cfg.RingCapacity <= 0 {
		cfg.RingCapacity = DefaultRingCapacity
	}
	return &Syncer{cfg: cfg}
}

// ResumeBlock implements §4.5's resume algorithm in order: watermark,
// start_block, start_datetime (binary search), chain head.
func (s *Syncer) ResumeBlock(ctx context.Context) (uint64, error) {
	if w, ok, err := s.cfg.Writer.GetLastBlock(ctx); err != nil {
		return 0, err
	} else if ok {
		logger.Info("resuming from persisted watermark", "watermark", w)
		return w + 1, nil
	}

	if s.cfg.StartBlock != nil {
		logger.Info("no watermark, resuming from configured start_block", "start_block", *s.cfg.StartBlock)
		return *s.cfg.StartBlock, nil
	}

	if s.cfg.StartDatetime != nil {
		block, err := s.resumeFromDatetime(ctx, *s.cfg.StartDatetime)
		if err != nil {
			return 0, err
		}
		logger.Info("no watermark, resuming from configured start_datetime", "start_datetime", s.cfg.StartDatetime, "block", block)
		return block, nil
	}

	head, err := s.cfg.RPC.HeadBlockNum(ctx)
	if err != nil {
		return 0, err
	}
	logger.Info("no watermark or start hint, resuming from chain head", "head", head)
	return head, nil
}

// resumeFromDatetime binary-searches [0, head] over get_block timestamps
// for the first block with timestamp >= target, per §4.5 step 4 and the
// O(log n) design note of §9.
func (s *Syncer) resumeFromDatetime(ctx context.Context, target time.Time) (uint64, error) {
	head, err := s.cfg.RPC.HeadBlockNum(ctx)
	if err != nil {
		return 0, err
	}

	lo, hi := uint64(0), head
	for lo < hi {
		mid := lo + (hi-lo)/2
		raw, status, err := s.cfg.RPC.GetBlock(ctx, mid)
		if err != nil {
			return 0, err
		}
		if status != jsonrpc.BlockOK {
			// Shouldn't happen inside [0, head], but fail toward a later
			// block rather than looping forever on a gap.
			lo = mid + 1
			continue
		}
		if raw.Timestamp.Before(target) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// Healthy reports whether the scan/write pipeline is currently running,
// backing the /healthz admin route. It flips false once Run has returned,
// whether from a clean shutdown or a fatal error.
func (s *Syncer) Healthy() bool {
	return s.running.Load()
}

// Run computes the resume point, starts the Scanner and Writer, and blocks
// until either fails or ctx is cancelled, in which case it waits up to
// ShutdownGrace for the writer to finish its in-flight step before
// returning (§5's graceful-drain SHOULD, see SPEC_FULL.md).
func (s *Syncer) Run(ctx context.Context) error {
	cursor, err := s.ResumeBlock(ctx)
	if err != nil {
		return errs.FatalInit(err, "computing resume block")
	}

	s.running.Store(true)
	defer s.running.Store(false)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	scanErrCh := make(chan error, 1)
	writeErrCh := make(chan error, 1)

	if s.cfg.BatchMode {
		ring := broadcast.NewRing[[]scanner.Block](s.cfg.RingCapacity)
		sub := ring.Subscribe()

		wg.Add(2)
		go func() {
			defer wg.Done()
			scanErrCh <- s.cfg.Scanner.RunBatched(runCtx, cursor, ring)
		}()
		go func() {
			defer wg.Done()
			defer sub.Unsubscribe()
			writeErrCh <- s.runBatchedWriter(runCtx, sub)
		}()
	} else {
		ring := broadcast.NewRing[scanner.Block](s.cfg.RingCapacity)
		sub := ring.Subscribe()

		wg.Add(2)
		go func() {
			defer wg.Done()
			scanErrCh <- s.cfg.Scanner.RunStreaming(runCtx, cursor, ring)
		}()
		go func() {
			defer wg.Done()
			defer sub.Unsubscribe()
			writeErrCh <- s.runStreamingWriter(runCtx, sub)
		}()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, draining writer", "grace", ShutdownGrace)
		cancel()
		select {
		case <-done:
			logger.Info("writer drained cleanly")
		case <-time.After(ShutdownGrace):
			logger.Warn("shutdown grace period expired, exiting without full drain")
		}
		return nil
	case err := <-scanErrCh:
		cancel()
		<-writeErrCh
		if err != nil && err != context.Canceled {
			return errs.FatalRuntime(err, "scanner failed")
		}
		return nil
	case err := <-writeErrCh:
		cancel()
		<-scanErrCh
		if err != nil && err != context.Canceled {
			return errs.FatalRuntime(err, "writer failed")
		}
		return nil
	}
}

func (s *Syncer) runStreamingWriter(ctx context.Context, sub *broadcast.Subscription[scanner.Block]) error {
	return s.cfg.Writer.Start(ctx, sub)
}

func (s *Syncer) runBatchedWriter(ctx context.Context, sub *broadcast.Subscription[[]scanner.Block]) error {
	return s.cfg.Writer.StartBatch(ctx, sub)
}
