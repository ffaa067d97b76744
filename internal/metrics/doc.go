// Package metrics provides optional build observability.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never requires nil checks at call
// sites. Daemon mode swaps in PrometheusRecorder and serves the registry via
// HTTPHandler when the metrics endpoint is enabled in configuration.
package metrics
