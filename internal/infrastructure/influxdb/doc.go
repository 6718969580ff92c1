// Package influxdb records Keyline's fleet telemetry as time series.
//
// It wraps the official influxdb-client-go v2 library. Every snapshot change
// the sync engine reports is turned into measurement points: bolt state and
// door state transitions, battery levels, and bridge availability. The data
// answers the questions the activity log cannot, like how fast a lock's
// battery is draining or how often a bridge drops offline.
//
// Writes are non-blocking and batched; a slow or absent InfluxDB never
// stalls the sync engine. The integration is optional and disabled by
// default in config.yaml.
package influxdb
