// Package sdlog is the persistent logging engine of the environmental
// logger: it appends sample rows to the data file with batched flushes,
// throttles and rotates error reports, and keeps the counters that make both
// work across deep-sleep resets in a retained.State.
//
// A Logger lives for exactly one wake cycle and is not safe for concurrent
// use. Nothing here spawns goroutines; every call blocks on the medium.
package sdlog

import (
	"time"

	"envlog-go/retained"
	"envlog-go/services/config"
	"envlog-go/storage"
	"envlog-go/x/fmtx"
)

// Error kinds the engine reports about itself.
const (
	KindDataWrite   = "data_write_error"
	KindHealthWrite = "health_write_error"
	KindRowSchema   = "row_schema_error"
	KindLoop        = "main_loop_error"
)

// Logger is the engine bound to one mounted volume.
type Logger struct {
	cfg config.Config
	vol storage.Volume
	st  *retained.State
	log fmtx.Logger

	dataReady   bool
	healthReady bool
	healthDirty bool
	tailScanned bool
	// throttlePartial is set when a read failure left the rebuilt
	// throttle table incomplete; the next cycle tries again.
	throttlePartial bool
	sidecar         []byte // last throttle image read from or written to the medium

	buf []byte
}

// New binds cfg to a mounted volume and the state loaded for this cycle.
// st is updated in place; the caller saves it when the cycle ends.
func New(cfg config.Config, vol storage.Volume, st *retained.State) *Logger {
	return &Logger{
		cfg: cfg,
		vol: vol,
		st:  st,
		log: fmtx.Logger{Prefix: "sdlog", Verbose: cfg.Debug},
		buf: make([]byte, 0, 128),
	}
}

// State exposes the live retained state.
func (l *Logger) State() *retained.State { return l.st }

// ReportLoopError records a fault from the caller's wake loop under the
// shorter loop throttle.
func (l *Logger) ReportLoopError(msg string, ts time.Time) {
	l.AppendError(KindLoop, msg, ts, l.cfg.LoopThrottle)
}

// retry runs op, and once more if it fails.
func retry(op func() error) error {
	if err := op(); err != nil {
		return op()
	}
	return nil
}
