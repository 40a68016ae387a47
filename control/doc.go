// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, hot reload and runtime metrics.
//
// Provides concurrent-safe state handling primitives including:
//   - TOML configuration with defaults and validation
//   - A live configuration store notifying keyed reload listeners
//   - Lock-free operation counters and named debug probes
package control
