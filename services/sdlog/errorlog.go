package sdlog

import (
	"strings"
	"time"

	"envlog-go/x/strconvx"
	"envlog-go/x/timex"
)

const suppressedTag = " [suppressed="

// AppendError reports an error of kind. At most one report per kind is
// written per window (DefaultThrottle when window <= 0); occurrences in
// between are counted and the count is folded into the next written line.
//
// AppendError never fails: a storage fault on this path is retried once
// and then dropped, since there is nowhere further to report it.
func (l *Logger) AppendError(kind, msg string, ts time.Time, window time.Duration) {
	if window <= 0 {
		window = l.cfg.DefaultThrottle
	}
	if kind == "" {
		kind = "error"
	}
	l.rebuildThrottle()

	e, ok := l.st.Entry(kind)
	if ok && !admit(e, ts, window) {
		if e.Suppressed < ^uint32(0) {
			e.Suppressed++
		}
		l.log.Debugf("suppressed %s (%d)", kind, e.Suppressed)
		return
	}
	var suppressed uint32
	if ok {
		suppressed = e.Suppressed
	}

	l.buf = appendErrorLine(l.buf[:0], ts, kind, msg, suppressed)
	path := l.cfg.ErrorPath
	if err := retry(func() error { return l.vol.Append(path, l.buf) }); err != nil {
		l.log.Warnf("dropped %s report: %v", kind, err)
		// Keep the occurrence so the next successful report accounts for it.
		e = l.st.Upsert(kind, l.cfg.MaxThrottleKinds)
		if e.Suppressed < ^uint32(0) {
			e.Suppressed++
		}
		return
	}

	e = l.st.Upsert(kind, l.cfg.MaxThrottleKinds)
	e.LastReport = ts.Unix()
	e.Suppressed = 0
	l.st.ErrorRows++
	if int64(l.st.ErrorRows) >= int64(l.cfg.ErrorRowLimit) {
		l.rotate()
	}
}

// appendErrorLine renders "ts,kind,message[ [suppressed=N]]\n". The
// message is flattened to one line.
func appendErrorLine(dst []byte, ts time.Time, kind, msg string, suppressed uint32) []byte {
	dst = timex.AppendISO(dst, ts)
	dst = append(dst, delim)
	dst = appendClean(dst, kind, true)
	dst = append(dst, delim)
	dst = appendClean(dst, msg, false)
	if suppressed > 0 {
		dst = append(dst, suppressedTag...)
		dst = strconvx.AppendUint(dst, uint64(suppressed), 10)
		dst = append(dst, ']')
	}
	return append(dst, '\n')
}

func appendClean(dst []byte, s string, isKind bool) []byte {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\n' || c == '\r' || c == '\t':
			c = ' '
		case isKind && (c == delim || c == ' '):
			c = '_'
		}
		dst = append(dst, c)
	}
	return dst
}

// errorLine is a parsed report line.
type errorLine struct {
	ts         time.Time
	kind       string
	msg        string
	suppressed uint32
}

func parseErrorLine(line string) (errorLine, bool) {
	if len(line) < timex.ISOLen+2 || line[timex.ISOLen] != delim {
		return errorLine{}, false
	}
	ts, err := timex.ParseISO(line[:timex.ISOLen])
	if err != nil {
		return errorLine{}, false
	}
	rest := line[timex.ISOLen+1:]
	i := strings.IndexByte(rest, delim)
	if i <= 0 {
		return errorLine{}, false
	}
	out := errorLine{ts: ts, kind: rest[:i], msg: rest[i+1:]}
	if j := strings.LastIndex(out.msg, suppressedTag); j >= 0 && strings.HasSuffix(out.msg, "]") {
		n, err := strconvx.Atoi(out.msg[j+len(suppressedTag) : len(out.msg)-1])
		if err == nil && n > 0 {
			out.suppressed = uint32(n)
			out.msg = out.msg[:j]
		}
	}
	return out, true
}
