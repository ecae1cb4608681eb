//go:build rp2040 || rp2350

package strconvx

// Minimal, allocation-aware helpers with identical signatures.
// Base 10 only for Parse*; Append* honours 2..36.

type parseError struct{}

func (parseError) Error() string { return "invalid syntax" }

func Itoa(i int) string { return string(AppendInt(nil, int64(i), 10)) }

func Atoi(s string) (int, error) {
	v, err := ParseInt(s, 10, 0)
	return int(v), err
}

func ParseInt(s string, _ int, _ int) (int64, error) {
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if len(s) == 0 {
		return 0, parseError{}
	}
	var v int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, parseError{}
		}
		v = v*10 + int64(c-'0')
		if v < 0 {
			return 0, parseError{}
		}
	}
	if neg {
		v = -v
	}
	return v, nil
}

func AppendInt(dst []byte, i int64, base int) []byte {
	if i < 0 {
		dst = append(dst, '-')
		return AppendUint(dst, uint64(-i), base)
	}
	return AppendUint(dst, uint64(i), base)
}

func AppendUint(dst []byte, u uint64, base int) []byte {
	if base < 2 || base > 36 {
		base = 10
	}
	if u == 0 {
		return append(dst, '0')
	}
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	var buf [64]byte
	i := len(buf)
	b := uint64(base)
	for u > 0 {
		i--
		buf[i] = digits[u%b]
		u /= b
	}
	return append(dst, buf[i:]...)
}

// AppendFixed appends f with exactly prec decimals. The whole value is scaled
// to an integer before splitting so 1.999 renders as "2.00", not "1.100".
func AppendFixed(dst []byte, f float64, prec int) []byte {
	if f != f {
		return append(dst, "NaN"...)
	}
	if prec < 0 {
		prec = 0
	}
	f = roundHalfAway(f, prec)
	if f < 0 {
		dst = append(dst, '-')
		f = -f
	}
	s := scale(prec)
	n := uint64(f*s + 0.5)
	p := uint64(s)
	dst = AppendUint(dst, n/p, 10)
	if prec == 0 {
		return dst
	}
	dst = append(dst, '.')
	frac := n % p
	for d := p / 10; d > 0; d /= 10 {
		dst = append(dst, byte('0'+frac/d%10))
	}
	return dst
}

// ParseFloat handles the plain decimal forms AppendFixed produces.
func ParseFloat(s string, _ int) (float64, error) {
	if len(s) == 0 {
		return 0, parseError{}
	}
	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}
	var intPart uint64
	var i int
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		intPart = intPart*10 + uint64(s[i]-'0')
		i++
	}
	var frac float64
	if i < len(s) && s[i] == '.' {
		i++
		sc := 1.0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			frac = frac*10 + float64(s[i]-'0')
			sc *= 10
			i++
		}
		frac = frac / sc
	}
	if i != len(s) || i == 0 {
		return 0, parseError{}
	}
	v := float64(intPart) + frac
	if neg {
		v = -v
	}
	return v, nil
}
