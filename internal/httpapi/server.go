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

// Package httpapi serves the admin surface that SPEC_FULL.md adds in place
// of the original source's dead outbound POST call (§9 open question 3):
// /healthz for the Syncer's liveness and /metrics for Prometheus scraping,
// mirroring the teacher's own http.Handle("/metrics", promhttp.Handler())
// wiring in cmd/kcn/main.go, routed through httprouter with a permissive
// cors.Default() handler the way the teacher's RPC HTTP server does.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/SilasVt/podpingd/internal/log"
)

var logger = log.NewModuleLogger(log.ModuleHTTPAPI)

// HealthChecker reports whether the sync pipeline is making progress; the
// Syncer implements this.
type HealthChecker interface {
	Healthy() bool
}

// Server is podpingd's admin HTTP surface.
type Server struct {
	httpServer *http.Server
}

// NewServer builds a Server bound to addr, not yet listening.
func NewServer(addr string, checker HealthChecker) *Server {
	router := httprouter.New()

	router.GET("/healthz", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if !checker.Healthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	handler := cors.Default().Handler(router)

	return &Server{httpServer: &http.Server{Addr: addr, Handler: handler}}
}

// ListenAndServe blocks serving until ctx is cancelled, then gracefully
// shuts down with a bounded grace period.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http admin server listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down http admin server")
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
