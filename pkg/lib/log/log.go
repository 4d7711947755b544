// Package log provides the logging interface for the phenohunter SDK.
//
// Any [Logger] implementation is accepted, [Noop] disables logging and is the
// default when no logger is configured.
package log

import "github.com/jturner1120/pheno-hunter-alpha-sub001/internal/log"

// Logger is the interface that loggers must implement for the SDK.
type Logger = log.Logger

// Kv is a helper type for structured logging key-value pairs.
type Kv = log.Kv

// Noop is a logger that discards all log output.
var Noop = log.Noop
