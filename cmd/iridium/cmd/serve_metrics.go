package cmd

import (
	"fmt"
	"net/http"

	"github.com/shine15/iridium-engine/metrics"
	"github.com/spf13/cobra"
)

var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Serve a Prometheus /metrics endpoint",
	Long: `Serve-metrics starts an HTTP server exposing a freshly created
metrics collector's /metrics endpoint. Nothing in this command feeds
the collector, so its gauges and counters keep their initial values.

Example:
  iridium serve-metrics --addr :9090`,
	RunE: runServeMetrics,
}

var serveMetricsAddr string

func init() {
	rootCmd.AddCommand(serveMetricsCmd)
	serveMetricsCmd.Flags().StringVar(&serveMetricsAddr, "addr", ":9090", "address to listen on")
}

func runServeMetrics(cmd *cobra.Command, args []string) error {
	collector := metrics.New()

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	fmt.Printf("serving metrics on %s/metrics\n", serveMetricsAddr)
	return http.ListenAndServe(serveMetricsAddr, mux)
}
