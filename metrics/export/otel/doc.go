// Package otel publishes account engine metrics through an OpenTelemetry
// meter.
//
// Each counter becomes an Int64ObservableCounter. The latency histogram is
// flattened into one gauge per cumulative bucket plus a count gauge, all read
// from a single snapshot per collection.
//
// Callers own the MeterProvider.
package otel
