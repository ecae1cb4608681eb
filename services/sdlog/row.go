package sdlog

import (
	"time"

	"envlog-go/x/strconvx"
	"envlog-go/x/timex"
)

// Value is one sensor reading, or the absence of one.
type Value struct {
	V  float64
	OK bool
}

// Float wraps a present reading.
func Float(v float64) Value { return Value{V: v, OK: true} }

// Absent marks a reading the sensor could not supply.
var Absent = Value{}

// Opt converts the (value, ok) shape most drivers return.
func Opt(v float64, ok bool) Value { return Value{V: v, OK: ok} }

// Row is the readings of one wake cycle, in schema order, without the
// timestamp column.
type Row []Value

const delim = ','

// appendHeader writes the schema line.
func appendHeader(dst []byte, fields []string) []byte {
	for i, f := range fields {
		if i > 0 {
			dst = append(dst, delim)
		}
		dst = append(dst, f...)
	}
	return append(dst, '\n')
}

// appendRow renders ts and row as one CSV line: two decimals per reading,
// absent readings as marker.
func appendRow(dst []byte, ts time.Time, row Row, marker string) []byte {
	dst = timex.AppendISO(dst, ts)
	for _, v := range row {
		dst = append(dst, delim)
		if !v.OK {
			dst = append(dst, marker...)
			continue
		}
		dst = strconvx.AppendFixed(dst, v.V, 2)
	}
	return append(dst, '\n')
}

// fit pads or truncates row to width. ok is false when the caller's row
// did not match the schema.
func fit(row Row, width int) (Row, bool) {
	switch {
	case len(row) == width:
		return row, true
	case len(row) > width:
		return row[:width], false
	}
	out := make(Row, width)
	copy(out, row)
	return out, false
}
