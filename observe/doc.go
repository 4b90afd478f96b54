// Package observe provides structured logging and OpenTelemetry metric
// recording for the content cache. Both default to no-ops so the cache
// stays silent unless the host application wires them up.
package observe
