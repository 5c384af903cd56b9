// Package internaldefs holds the metric names and bucket boundaries shared by
// the exporter implementations.
//
// Both the Prometheus and OTel exporters render from these tables, so a
// change here affects every exporter at once.
//
// # What this package must NOT do
//
//   - Import any exporter package.
//   - Perform I/O.
package internaldefs
