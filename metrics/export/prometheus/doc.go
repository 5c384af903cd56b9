// Package prometheus exposes account engine metrics in the Prometheus text
// exposition format.
//
// Counter names follow goaccount_<event>_total. The only histogram is
// goaccount_validate_latency_seconds, fed by access token verification.
//
// The exporter never touches a global registry; callers mount Handler on
// their own router.
package prometheus
