// Package metric provides Prometheus metrics for the tsqr server.
//
//   - prometheus.go: Registry with verification, decode and HTTP metrics
//   - collector.go: scrape-time gauge over the nonce store size
//
// Registry satisfies service.VerdictRecorder and its ObserveDecodeStage
// method is a qrdecode.Observer, so both can be wired without adapters.
// Metrics are exposed at /metrics in Prometheus text format.
package metric
