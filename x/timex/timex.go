package timex

import (
	"errors"
	"time"
)

// ISOLen is the byte length of an ISO stamp ("2006-01-02 15:04:05").
const ISOLen = 19

// ZeroISO is written when the RTC could not supply a time.
const ZeroISO = "0000-00-00 00:00:00"

var errISO = errors.New("timex: malformed timestamp")

// AppendISO appends t as "YYYY-MM-DD hh:mm:ss" without going through
// time.Format, which is costly on the MCU. Stamps are always UTC so
// ParseISO reads back the same instant. The zero time renders as ZeroISO.
func AppendISO(dst []byte, t time.Time) []byte {
	if t.IsZero() {
		return append(dst, ZeroISO...)
	}
	t = t.UTC()
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	dst = append4(dst, y)
	dst = append(dst, '-')
	dst = append2(dst, int(mo))
	dst = append(dst, '-')
	dst = append2(dst, d)
	dst = append(dst, ' ')
	dst = append2(dst, h)
	dst = append(dst, ':')
	dst = append2(dst, mi)
	dst = append(dst, ':')
	return append2(dst, s)
}

// ISO is AppendISO into a fresh string.
func ISO(t time.Time) string { return string(AppendISO(make([]byte, 0, ISOLen), t)) }

// ParseISO reads a stamp written by AppendISO, in UTC. ZeroISO parses to the
// zero time.
func ParseISO(s string) (time.Time, error) {
	if len(s) != ISOLen || s[4] != '-' || s[7] != '-' || s[10] != ' ' || s[13] != ':' || s[16] != ':' {
		return time.Time{}, errISO
	}
	if s == ZeroISO {
		return time.Time{}, nil
	}
	var f [6]int
	spans := [6][2]int{{0, 4}, {5, 7}, {8, 10}, {11, 13}, {14, 16}, {17, 19}}
	for i, sp := range spans {
		n, ok := digits(s[sp[0]:sp[1]])
		if !ok {
			return time.Time{}, errISO
		}
		f[i] = n
	}
	if f[1] < 1 || f[1] > 12 || f[2] < 1 || f[2] > 31 || f[3] > 23 || f[4] > 59 || f[5] > 59 {
		return time.Time{}, errISO
	}
	return time.Date(f[0], time.Month(f[1]), f[2], f[3], f[4], f[5], 0, time.UTC), nil
}

func digits(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func append2(dst []byte, v int) []byte {
	return append(dst, byte('0'+v/10%10), byte('0'+v%10))
}

func append4(dst []byte, v int) []byte {
	if v < 0 {
		v = 0
	}
	return append(dst, byte('0'+v/1000%10), byte('0'+v/100%10), byte('0'+v/10%10), byte('0'+v%10))
}
