package sdlog

import (
	"errors"

	"envlog-go/errcode"
	"envlog-go/x/strconvx"
)

// backlogPath names rotated error file n; 1 is the most recent.
func backlogPath(path string, n int) string {
	return path + "." + strconvx.Itoa(n)
}

// rotate moves the active error file into the backlog ring: the oldest slot
// is deleted, every slot shifts one older, and the active file becomes slot
// 1. ErrorRows is reset only when the active file actually moved, so a
// failed rotation is retried after the next report.
func (l *Logger) rotate() {
	path := l.cfg.ErrorPath
	keep := l.cfg.ErrorRetention

	if keep <= 0 {
		if err := retry(func() error { return ignoreMissing(l.vol.Delete(path)) }); err != nil {
			l.log.Warnf("rotate: %v", err)
			return
		}
		l.st.ErrorRows = 0
		return
	}

	oldest := backlogPath(path, keep)
	if err := retry(func() error { return ignoreMissing(l.vol.Delete(oldest)) }); err != nil {
		l.log.Warnf("rotate: %v", err)
		return
	}
	for i := keep - 1; i >= 1; i-- {
		from, to := backlogPath(path, i), backlogPath(path, i+1)
		if err := retry(func() error { return ignoreMissing(l.vol.Rename(from, to)) }); err != nil {
			l.log.Warnf("rotate: %v", err)
			return
		}
	}
	if err := retry(func() error { return ignoreMissing(l.vol.Rename(path, backlogPath(path, 1))) }); err != nil {
		l.log.Warnf("rotate: %v", err)
		return
	}
	l.log.Debugf("rotated %s after %d rows", path, l.st.ErrorRows)
	l.st.ErrorRows = 0
}

func ignoreMissing(err error) error {
	if errors.Is(err, errcode.NotFound) {
		return nil
	}
	return err
}
