//go:build rp2040 || rp2350

package fmtx

import (
	"io"
	"time"
	"unicode/utf8"

	"envlog-go/x/strconvx"
)

// DefaultOutput is used by Print/Printf on MCU builds.
// Set this from the firmware bootstrap (the UART console).
var DefaultOutput io.Writer = discard{}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// --- Public API (signatures match fmt) ---

func Sprintf(format string, a ...any) string {
	var b builder
	b.format(format, a...)
	return string(b.buf)
}

func Printf(format string, a ...any) (int, error) {
	var b builder
	b.format(format, a...)
	return DefaultOutput.Write(b.buf)
}

func Fprintf(w io.Writer, format string, a ...any) (int, error) {
	var b builder
	b.format(format, a...)
	return w.Write(b.buf)
}

func Errorf(format string, a ...any) error {
	return &stringError{Sprintf(format, a...)}
}

func Sprint(a ...any) string {
	var b builder
	for i, v := range a {
		if i > 0 {
			b.byte(' ')
		}
		b.any(v, -1)
	}
	return string(b.buf)
}

func Print(a ...any) (int, error) { return DefaultOutput.Write([]byte(Sprint(a...))) }

// --- Internals: tiny formatter subset ---
// Supports: %s %q %d %x %f %v %t %% with width for %s and precision for %s/%f.
// %w is rendered like %v; the cause is not retained.

type stringError struct{ s string }

func (e *stringError) Error() string { return e.s }

type builder struct{ buf []byte }

func (b *builder) byte(c byte)  { b.buf = append(b.buf, c) }
func (b *builder) str(s string) { b.buf = append(b.buf, s...) }

func (b *builder) any(v any, prec int) {
	switch x := v.(type) {
	case nil:
		b.str("<nil>")
	case string:
		b.str(x)
	case []byte:
		b.buf = append(b.buf, x...)
	case error:
		b.str(x.Error())
	case time.Duration:
		b.str(x.String())
	case int:
		b.buf = strconvx.AppendInt(b.buf, int64(x), 10)
	case int8:
		b.buf = strconvx.AppendInt(b.buf, int64(x), 10)
	case int16:
		b.buf = strconvx.AppendInt(b.buf, int64(x), 10)
	case int32:
		b.buf = strconvx.AppendInt(b.buf, int64(x), 10)
	case int64:
		b.buf = strconvx.AppendInt(b.buf, x, 10)
	case uint:
		b.buf = strconvx.AppendUint(b.buf, uint64(x), 10)
	case uint8:
		b.buf = strconvx.AppendUint(b.buf, uint64(x), 10)
	case uint16:
		b.buf = strconvx.AppendUint(b.buf, uint64(x), 10)
	case uint32:
		b.buf = strconvx.AppendUint(b.buf, uint64(x), 10)
	case uint64:
		b.buf = strconvx.AppendUint(b.buf, x, 10)
	case bool:
		if x {
			b.str("true")
		} else {
			b.str("false")
		}
	case float32:
		if prec < 0 {
			prec = 6
		}
		b.buf = strconvx.AppendFixed(b.buf, float64(x), prec)
	case float64:
		if prec < 0 {
			prec = 6
		}
		b.buf = strconvx.AppendFixed(b.buf, x, prec)
	default:
		b.str("<unk>")
	}
}

func (b *builder) format(format string, args ...any) {
	ai := 0
	for i := 0; i < len(format); {
		if format[i] != '%' {
			b.byte(format[i])
			i++
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			b.byte('%')
			i += 2
			continue
		}
		i++
		width, prec := 0, -1
		i = parseNum(format, i, &width)
		if i < len(format) && format[i] == '.' {
			i++
			prec = 0
			i = parseNum(format, i, &prec)
		}
		if i >= len(format) || ai >= len(args) {
			return
		}
		verb := format[i]
		arg := args[ai]
		ai++
		i++

		switch verb {
		case 's', 'q':
			s, ok := arg.(string)
			if !ok {
				if e, isErr := arg.(error); isErr {
					s = e.Error()
				} else {
					b.any(arg, prec)
					continue
				}
			}
			if verb == 'q' {
				s = quote(s)
			}
			if prec >= 0 && prec < len(s) {
				s = s[:prec]
			}
			for pad := width - utf8.RuneCountInString(s); pad > 0; pad-- {
				b.byte(' ')
			}
			b.str(s)
		case 'd':
			b.any(arg, prec)
		case 'x':
			if u, ok := arg.(uint32); ok {
				b.buf = strconvx.AppendUint(b.buf, uint64(u), 16)
			} else {
				b.any(arg, prec)
			}
		case 'f':
			if prec < 0 {
				prec = 6
			}
			b.any(arg, prec)
		case 't', 'v', 'w':
			b.any(arg, prec)
		default:
			b.byte('%')
			b.byte(verb)
		}
	}
}

func parseNum(s string, i int, out *int) int {
	n := 0
	start := i
	for i < len(s) && '0' <= s[i] && s[i] <= '9' {
		n = n*10 + int(s[i]-'0')
		i++
	}
	if i > start {
		*out = n
	}
	return i
}

func quote(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', '"':
			out = append(out, '\\', s[i])
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		default:
			out = append(out, s[i])
		}
	}
	out = append(out, '"')
	return string(out)
}
