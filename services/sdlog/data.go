package sdlog

import (
	"runtime"
	"time"

	"envlog-go/x/strconvx"
	"envlog-go/x/timex"
)

// AppendRow appends one sample row to the data file.
//
// The write goes to the medium immediately; an explicit flush follows only
// every FlushRowLimit rows, so an unclean power loss costs at most
// FlushRowLimit-1 rows. Failures are reported as data_write_error and
// returned for information only: the cycle carries on and the unflushed
// counter is left as it was.
func (l *Logger) AppendRow(row Row, ts time.Time) error {
	width := len(l.cfg.Fields) - 1
	row, ok := fit(row, width)
	if !ok {
		l.AppendError(KindRowSchema, "row width mismatch, want "+strconvx.Itoa(width), ts, 0)
	}

	path := l.cfg.DataPath
	if err := l.ensureHeader(path, l.cfg.Fields, &l.dataReady, true); err != nil {
		l.AppendError(KindDataWrite, err.Error(), ts, 0)
		return err
	}

	l.buf = appendRow(l.buf[:0], ts, row, l.cfg.AbsentMarker)
	if err := l.vol.Append(path, l.buf); err != nil {
		l.AppendError(KindDataWrite, err.Error(), ts, 0)
		return err
	}
	if l.st.Unflushed < 0xFFFF {
		l.st.Unflushed++
	}
	if int(l.st.Unflushed) < l.cfg.FlushRowLimit {
		return nil
	}
	if err := l.flushData(); err != nil {
		l.AppendError(KindDataWrite, err.Error(), ts, 0)
		return err
	}
	l.log.Debugf("flushed %d rows", l.st.Unflushed)
	l.st.Unflushed = 0
	return nil
}

// healthFields is the schema of the optional health log.
var healthFields = []string{"timestamp", "cycle", "unflushed", "error_rows", "heap_free"}

// AppendHealth appends a housekeeping row (cycle counter, engine counters,
// free heap) to the health log. It shares the data file's flush cadence.
func (l *Logger) AppendHealth(ts time.Time) error {
	path := l.cfg.HealthPath
	if path == "" {
		return nil
	}
	if err := l.ensureHeader(path, healthFields, &l.healthReady, false); err != nil {
		l.AppendError(KindHealthWrite, err.Error(), ts, 0)
		return err
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	free := uint64(0)
	if ms.HeapSys > ms.HeapInuse {
		free = ms.HeapSys - ms.HeapInuse
	}
	b := timex.AppendISO(l.buf[:0], ts)
	for _, v := range [...]uint64{uint64(l.st.Cycles), uint64(l.st.Unflushed), uint64(l.st.ErrorRows), free} {
		b = append(b, delim)
		b = strconvx.AppendUint(b, v, 10)
	}
	l.buf = append(b, '\n')
	if err := l.vol.Append(path, l.buf); err != nil {
		l.AppendError(KindHealthWrite, err.Error(), ts, 0)
		return err
	}
	l.healthDirty = true
	return nil
}

// ensureHeader writes the schema line when path is missing or empty. It
// stats once per cycle. A fresh data file resets the unflushed counter:
// rows counted against a vanished file can never be flushed.
func (l *Logger) ensureHeader(path string, fields []string, ready *bool, data bool) error {
	if *ready {
		return nil
	}
	size, exists, err := l.vol.Stat(path)
	if err != nil {
		return err
	}
	if !exists || size == 0 {
		l.buf = appendHeader(l.buf[:0], fields)
		if err := l.vol.Append(path, l.buf); err != nil {
			return err
		}
		if data {
			l.st.Unflushed = 0
		}
		l.log.Debugf("created %s", path)
	}
	*ready = true
	return nil
}

func (l *Logger) flushData() error {
	if err := l.vol.Flush(l.cfg.DataPath); err != nil {
		return err
	}
	if l.healthDirty {
		if err := l.vol.Flush(l.cfg.HealthPath); err != nil {
			l.log.Warnf("health flush: %v", err)
			return nil
		}
		l.healthDirty = false
	}
	return nil
}
