// Package storage owns the mount lifecycle of the removable medium and the
// handful of file primitives the logging engine needs.
//
// Every primitive reports a distinct errcode so callers can tell a medium
// that never mounted (fatal for the cycle) from a single failed write
// (recoverable, logged).
package storage

import (
	"envlog-go/errcode"
	"envlog-go/x/fmtx"
)

// Volume is a mounted medium. Paths are relative to the medium root.
type Volume interface {
	// Append writes p at the end of path, creating it if needed. The bytes
	// may sit in a driver buffer until Flush.
	Append(path string, p []byte) error
	// Flush forces buffered appends on path down to the medium.
	Flush(path string) error
	Rename(oldPath, newPath string) error
	Delete(path string) error
	// Stat reports the size of path. A missing file is not an error.
	Stat(path string) (size int64, exists bool, err error)
	// Tail returns up to the last n bytes of path.
	Tail(path string, n int) ([]byte, error)
}

// Medium is something that can be mounted for the duration of one cycle.
type Medium interface {
	Mount() (Volume, error)
	// Unmount releases the medium, closing any open files.
	Unmount() error
}

// WithMount mounts m, runs fn and always unmounts, including when fn
// panics. A panic comes back as an errcode.Fault; a mount failure as
// errcode.MediumUnavailable and fn is not called.
func WithMount(m Medium, fn func(Volume) error) (err error) {
	v, merr := m.Mount()
	if merr != nil {
		if errcode.Of(merr) == errcode.MediumUnavailable {
			return merr
		}
		return errcode.New(errcode.MediumUnavailable, "mount", "", merr)
	}
	defer func() {
		if r := recover(); r != nil {
			err = &errcode.E{C: errcode.Fault, Op: "cycle", Msg: fmtx.Sprint(r)}
		}
		if uerr := m.Unmount(); uerr != nil && err == nil {
			err = uerr
		}
	}()
	return fn(v)
}

// statResult maps a backend stat outcome onto Volume.Stat. Only an error
// the backend identifies as a missing file reads as absent; any other
// failure is StatFailed, so callers never mistake a flaky read for an
// empty medium.
func statResult(path string, size int64, err error, missing func(error) bool) (int64, bool, error) {
	switch {
	case err == nil:
		return size, true, nil
	case missing(err):
		return 0, false, nil
	default:
		return 0, false, errcode.New(errcode.StatFailed, "stat", path, err)
	}
}
