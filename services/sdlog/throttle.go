package sdlog

import (
	"bytes"
	"time"

	"envlog-go/errcode"
	"envlog-go/retained"
)

// admit decides whether an event at ts may be written given the kind's
// entry. A clock that runs backwards (RTC reset, battery swap) admits the
// event rather than muting the kind until the clock catches up.
func admit(e *retained.ThrottleEntry, ts time.Time, window time.Duration) bool {
	if e == nil || e.LastReport == 0 {
		return true
	}
	d := ts.Sub(e.Last())
	return d < 0 || d >= window
}

// loadSidecar merges the throttle image on the medium into the table,
// skipping kinds in keep. A missing or corrupt sidecar adds nothing.
func (l *Logger) loadSidecar(keep map[string]bool) {
	path := l.cfg.ThrottlePath
	if path == "" {
		return
	}
	b, err := l.vol.Tail(path, retained.MaxSize(l.sidecarKinds()))
	if err != nil {
		if errcode.Of(err) != errcode.NotFound {
			l.log.Warnf("throttle sidecar: %v", err)
			l.throttlePartial = true
		}
		return
	}
	img, err := retained.Decode(b)
	if err != nil {
		l.log.Warnf("throttle sidecar %s: %v", path, err)
		return
	}
	l.sidecar = b
	for _, e := range img.Throttle {
		if keep[e.Kind] {
			continue
		}
		if limit := l.cfg.MaxThrottleKinds; limit > 0 && len(l.st.Throttle) >= limit {
			break
		}
		*l.st.Upsert(e.Kind, l.cfg.MaxThrottleKinds) = e
	}
}

// SaveThrottle writes the throttle table to the sidecar file when it does
// not fit a retained region of capacity bytes. It is a no-op when the table
// fits or the image on the medium is already current. Failures are logged
// and the next cycle falls back to the error log tail.
func (l *Logger) SaveThrottle(capacity int) {
	path := l.cfg.ThrottlePath
	if path == "" || retained.Size(*l.st) <= capacity {
		return
	}
	tbl := retained.State{Throttle: l.st.Throttle}
	img, err := retained.Encode(tbl, retained.Size(tbl))
	if err != nil || bytes.Equal(img, l.sidecar) {
		return
	}
	// FAT cannot rename over an existing file, so the old image goes first.
	// A torn write fails the CRC and is ignored on load.
	if err := l.vol.Delete(path); err != nil && errcode.Of(err) != errcode.NotFound {
		l.log.Warnf("throttle sidecar: %v", err)
		return
	}
	if err := l.vol.Append(path, img); err != nil {
		l.log.Warnf("throttle sidecar: %v", err)
		return
	}
	if err := l.vol.Flush(path); err != nil {
		l.log.Warnf("throttle sidecar: %v", err)
		return
	}
	l.sidecar = img
}

func (l *Logger) sidecarKinds() int {
	if n := l.cfg.MaxThrottleKinds; n > 0 {
		return n
	}
	return 64
}
