// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/blinklabs-io/powcore/internal/config"
	"github.com/blinklabs-io/powcore/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "powcore"

var (
	HeadersAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "headers_accepted_total",
		Help:      "Number of block headers accepted into the index",
	})
	HeadersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "headers_rejected_total",
		Help:      "Number of block headers rejected, by reason",
	}, []string{"reason"})
	Retargets = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retargets_total",
		Help:      "Number of accepted headers, by retarget mode",
	}, []string{"mode"})
	TipHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tip_height",
		Help:      "Height of the block with the most cumulative work",
	})
)

// Start serves /metrics on the configured address. It does nothing when no
// port is configured.
func Start() error {
	cfg := config.GetConfig()
	if cfg.Metrics.ListenPort == 0 {
		return nil
	}
	listenAddr := fmt.Sprintf(
		"%s:%d",
		cfg.Metrics.ListenAddress,
		cfg.Metrics.ListenPort,
	)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 60 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil {
			logging.GetLogger().Fatalf("failed to start metrics listener: %s", err)
		}
	}()
	return nil
}
