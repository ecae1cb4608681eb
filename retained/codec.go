package retained

import (
	"encoding/binary"
	"hash/crc32"
	"sort"

	"envlog-go/errcode"
)

// Wire layout, little-endian:
//
//	0  magic     [2]byte {0xE1, 0x06}
//	2  version   u8
//	3  flags     u8
//	4  unflushed u16
//	6  cycles    u16
//	8  errRows   u32
//	12 entries   { kindLen u8, kind, last i64, suppressed u32 }*
//	-4 crc32     IEEE over everything before it
//
// With no entries the image is exactly 16 bytes, the size of the four free
// RP2 watchdog scratch registers.
const (
	magic0     = 0xE1
	magic1     = 0x06
	version    = 1
	headerLen  = 12
	crcLen     = 4
	MinSize    = headerLen + crcLen
	entryFixed = 1 + 8 + 4
	maxKindLen = 32

	flagTruncated = 1 << 0
	flagStale     = 1 << 1
)

// Size is the length of the image Encode would produce for s with no
// capacity limit.
func Size(s State) int {
	n := MinSize
	for _, e := range s.Throttle {
		if e.Kind == "" {
			continue
		}
		n += entryFixed + min(len(e.Kind), maxKindLen)
	}
	return n
}

// MaxSize bounds the image of a table holding up to kinds entries.
func MaxSize(kinds int) int { return MinSize + kinds*(entryFixed+maxKindLen) }

// Encode serialises s into at most capacity bytes. Throttle entries that do
// not fit are dropped, least recently reported first, and the image is
// flagged Truncated so the next Load knows to rebuild them from the log.
// A state that is already Truncated or Stale keeps the flag.
func Encode(s State, capacity int) ([]byte, error) {
	if capacity < MinSize {
		return nil, errcode.RetainedTooSmall
	}
	entries := make([]ThrottleEntry, 0, len(s.Throttle))
	for _, e := range s.Throttle {
		if e.Kind == "" {
			continue
		}
		if len(e.Kind) > maxKindLen {
			e.Kind = e.Kind[:maxKindLen]
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].LastReport > entries[j].LastReport })

	var flags byte
	if s.Truncated {
		flags |= flagTruncated
	}
	if s.Stale {
		flags |= flagStale
	}
	room := capacity - MinSize
	keep := 0
	for _, e := range entries {
		need := entryFixed + len(e.Kind)
		if need > room {
			flags |= flagTruncated
			break
		}
		room -= need
		keep++
	}
	entries = entries[:keep]

	size := MinSize
	for _, e := range entries {
		size += entryFixed + len(e.Kind)
	}
	buf := make([]byte, size)
	buf[0], buf[1], buf[2], buf[3] = magic0, magic1, version, flags
	binary.LittleEndian.PutUint16(buf[4:], s.Unflushed)
	binary.LittleEndian.PutUint16(buf[6:], s.Cycles)
	binary.LittleEndian.PutUint32(buf[8:], s.ErrorRows)
	off := headerLen
	for _, e := range entries {
		buf[off] = byte(len(e.Kind))
		off++
		off += copy(buf[off:], e.Kind)
		binary.LittleEndian.PutUint64(buf[off:], uint64(e.LastReport))
		off += 8
		binary.LittleEndian.PutUint32(buf[off:], e.Suppressed)
		off += 4
	}
	binary.LittleEndian.PutUint32(buf[off:], crc32.ChecksumIEEE(buf[:off]))
	return buf, nil
}

// Decode parses an image produced by Encode. Trailing bytes beyond the CRC
// are ignored only if they are zero padding from a fixed-size region.
func Decode(b []byte) (State, error) {
	if len(b) < MinSize || b[0] != magic0 || b[1] != magic1 || b[2] != version {
		return State{}, errcode.RetainedInvalid
	}
	// Walk entries to find where the CRC sits.
	off := headerLen
	var entries []ThrottleEntry
	for {
		if off+crcLen > len(b) {
			return State{}, errcode.RetainedInvalid
		}
		if crc32.ChecksumIEEE(b[:off]) == binary.LittleEndian.Uint32(b[off:]) && zeros(b[off+crcLen:]) {
			break
		}
		n := int(b[off])
		if n == 0 || n > maxKindLen || off+1+n+8+4 > len(b) {
			return State{}, errcode.RetainedInvalid
		}
		off++
		e := ThrottleEntry{Kind: string(b[off : off+n])}
		off += n
		e.LastReport = int64(binary.LittleEndian.Uint64(b[off:]))
		off += 8
		e.Suppressed = binary.LittleEndian.Uint32(b[off:])
		off += 4
		entries = append(entries, e)
	}
	return State{
		Unflushed: binary.LittleEndian.Uint16(b[4:]),
		Cycles:    binary.LittleEndian.Uint16(b[6:]),
		ErrorRows: binary.LittleEndian.Uint32(b[8:]),
		Throttle:  entries,
		Valid:     b[3]&flagStale == 0,
		Truncated: b[3]&flagTruncated != 0,
		Stale:     b[3]&flagStale != 0,
	}, nil
}

func zeros(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
