// Package config loads ilsfeed settings.
//
// Settings are resolved in three layers: built-in defaults, an optional
// YAML file decoded strictly (unknown keys are rejected), then environment
// overrides for the values operators most often inject:
//
//	ILSFEED_STATE_DRIVER   state.driver
//	ILSFEED_STATE_DSN      state.dsn
//	ILSFEED_SOURCE_DSN     source.dsn
//	ILSFEED_METRICS_ADDR   metrics_addr
//	ILSFEED_LOG_LEVEL      log.level
//
// The result is validated against the embedded CUE schema (schema.cue).
// Every problem is reported as an *Error.
package config
