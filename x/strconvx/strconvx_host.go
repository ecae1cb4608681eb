//go:build !(rp2040 || rp2350)

package strconvx

import "strconv"

// Signature parity with strconv; delegate straight through.

func Itoa(i int) string                                   { return strconv.Itoa(i) }
func Atoi(s string) (int, error)                          { return strconv.Atoi(s) }
func ParseInt(s string, base, bitSize int) (int64, error) { return strconv.ParseInt(s, base, bitSize) }
func ParseFloat(s string, bitSize int) (float64, error)   { return strconv.ParseFloat(s, bitSize) }
func AppendInt(dst []byte, i int64, base int) []byte      { return strconv.AppendInt(dst, i, base) }
func AppendUint(dst []byte, u uint64, base int) []byte    { return strconv.AppendUint(dst, u, base) }

// AppendFixed appends f with exactly prec decimals, rounding half away from zero.
func AppendFixed(dst []byte, f float64, prec int) []byte {
	return strconv.AppendFloat(dst, roundHalfAway(f, prec), 'f', prec, 64)
}
