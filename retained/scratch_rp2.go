//go:build rp2040 || rp2350

package retained

import (
	"encoding/binary"

	"device/rp"
	"runtime/volatile"

	"envlog-go/errcode"
)

// ScratchRegion uses watchdog SCRATCH0..3, which survive a watchdog reboot.
// SCRATCH4..7 belong to the bootrom. Sixteen bytes hold the counters but no
// throttle entries; those live in the throttle sidecar on the card.
type ScratchRegion struct{}

func (ScratchRegion) regs() [4]*volatile.Register32 {
	return [4]*volatile.Register32{
		&rp.WATCHDOG.SCRATCH0, &rp.WATCHDOG.SCRATCH1,
		&rp.WATCHDOG.SCRATCH2, &rp.WATCHDOG.SCRATCH3,
	}
}

func (ScratchRegion) Cap() int { return MinSize }

func (s ScratchRegion) Read() ([]byte, error) {
	b := make([]byte, MinSize)
	for i, r := range s.regs() {
		binary.LittleEndian.PutUint32(b[i*4:], r.Get())
	}
	return b, nil
}

func (s ScratchRegion) Write(b []byte) error {
	if len(b) > MinSize {
		return errcode.RetainedTooSmall
	}
	var img [MinSize]byte
	copy(img[:], b)
	for i, r := range s.regs() {
		r.Set(binary.LittleEndian.Uint32(img[i*4:]))
	}
	return nil
}
