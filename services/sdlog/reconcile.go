package sdlog

import (
	"strings"

	"envlog-go/errcode"
	"envlog-go/x/timex"
)

// minErrorRow is the shortest possible report line: stamp, two
// delimiters, a one-byte kind and the newline.
const minErrorRow = timex.ISOLen + 4

// Reconcile re-derives retained counters from the medium. It runs at the
// start of every cycle but only touches the files when the state failed its
// integrity check or every RevalidateCycles cycles; the medium wins whenever
// the two disagree in a way the files can prove.
func (l *Logger) Reconcile() {
	st := l.st
	due := !st.Valid
	if n := l.cfg.RevalidateCycles; n > 0 && int(st.Cycles)%n == 0 {
		due = true
	}
	if due {
		l.revalidate()
	}
	if !st.Valid || st.Truncated {
		l.rebuildThrottle()
	}
	st.Valid = true
	st.Stale = false
	st.Truncated = l.throttlePartial
}

func (l *Logger) revalidate() {
	st := l.st

	size, exists, err := l.vol.Stat(l.cfg.DataPath)
	if err == nil && (!exists || size == 0 || int(st.Unflushed) > l.cfg.FlushRowLimit) {
		st.Unflushed = 0
	}

	size, exists, err = l.vol.Stat(l.cfg.ErrorPath)
	if err != nil {
		return
	}
	switch {
	case !exists:
		st.ErrorRows = 0
	case !st.Valid:
		st.ErrorRows = uint32(size / int64(l.cfg.ErrorAvgRowBytes))
	case size/minErrorRow < int64(st.ErrorRows):
		// The file cannot hold that many rows; it was replaced or truncated.
		st.ErrorRows = uint32(size / int64(l.cfg.ErrorAvgRowBytes))
	}
	l.log.Debugf("revalidated: unflushed=%d error_rows=%d", st.Unflushed, st.ErrorRows)
}

// rebuildThrottle recovers the throttle table for kinds missing from it,
// at most once per cycle. The sidecar written by SaveThrottle supplies
// exact entries; the tail of the error log fills in kinds the sidecar lacks
// and moves forward any sidecar entry the log proves stale. Kinds already
// present keep their exact retained values.
func (l *Logger) rebuildThrottle() {
	if l.tailScanned || (l.st.Valid && !l.st.Truncated) {
		return
	}
	l.tailScanned = true

	exact := map[string]bool{}
	for _, e := range l.st.Throttle {
		exact[e.Kind] = true
	}
	l.loadSidecar(exact)

	n := l.cfg.ErrorTailBytes
	if n <= 0 {
		return
	}
	paths := []string{l.cfg.ErrorPath}
	if l.cfg.ErrorRetention > 0 {
		// Right after a rotation the active file is empty; the last reports
		// live in slot 1.
		paths = append(paths, backlogPath(l.cfg.ErrorPath, 1))
	}
	seen := map[string]bool{}
	for _, p := range paths {
		b, err := l.vol.Tail(p, n)
		if err != nil && errcode.Of(err) != errcode.NotFound {
			l.throttlePartial = true
		}
		if err != nil || len(b) == 0 {
			continue
		}
		lines := strings.Split(string(b), "\n")
		// The first line is cut mid-way when the window starts inside the file.
		if size, _, err := l.vol.Stat(p); err != nil || size > int64(len(b)) {
			lines = lines[1:]
		}
		found := false
		for i := len(lines) - 1; i >= 0; i-- {
			ln, ok := parseErrorLine(lines[i])
			if !ok {
				continue
			}
			found = true
			if exact[ln.kind] || seen[ln.kind] {
				continue
			}
			seen[ln.kind] = true
			last := ln.ts.Unix()
			if e, ok := l.st.Entry(ln.kind); ok {
				if last > e.LastReport {
					e.LastReport = last
					e.Suppressed = 0
				}
				continue
			}
			if limit := l.cfg.MaxThrottleKinds; limit > 0 && len(l.st.Throttle) >= limit {
				continue
			}
			e := l.st.Upsert(ln.kind, l.cfg.MaxThrottleKinds)
			e.LastReport = last
		}
		if found {
			break
		}
	}
	l.log.Debugf("throttle rebuilt: %d kinds", len(l.st.Throttle))
}
