package retained

import (
	"errors"
	"os"

	"github.com/spf13/afero"

	"envlog-go/errcode"
)

// Region is a small block of memory that survives the wipe.
type Region interface {
	// Read returns the raw image. Uninitialised regions return garbage or
	// zeros, never an error.
	Read() ([]byte, error)
	// Write replaces the image; len(b) <= Cap().
	Write(b []byte) error
	Cap() int
}

// Load reads and validates r. Any failure yields a zero State with
// Valid=false; a corrupt region is never fatal. A Stale image keeps its
// counters but also loads with Valid=false.
func Load(r Region) State {
	b, err := r.Read()
	if err != nil {
		return State{}
	}
	s, err := Decode(b)
	if err != nil {
		return State{}
	}
	return s
}

// Save encodes s into r. It must be the last thing a cycle does before
// the sleep that wipes working memory.
func Save(r Region, s State) error {
	b, err := Encode(s, r.Cap())
	if err != nil {
		return err
	}
	return r.Write(b)
}

// MemRegion is a fixed-size byte region. It stands in for battery-backed
// RAM in tests and in the host simulator.
type MemRegion struct {
	buf []byte
}

func NewMemRegion(size int) *MemRegion { return &MemRegion{buf: make([]byte, size)} }

func (m *MemRegion) Read() ([]byte, error) { return append([]byte(nil), m.buf...), nil }
func (m *MemRegion) Cap() int              { return len(m.buf) }

func (m *MemRegion) Write(b []byte) error {
	if len(b) > len(m.buf) {
		return errcode.RetainedTooSmall
	}
	n := copy(m.buf, b)
	clear(m.buf[n:])
	return nil
}

// Corrupt flips a byte, for tests of the integrity check.
func (m *MemRegion) Corrupt(i int) {
	if i >= 0 && i < len(m.buf) {
		m.buf[i] ^= 0xFF
	}
}

// FileRegion keeps the image in a small sidecar file. It is the fallback
// for boards without retained RAM: slower, and it costs a write per cycle.
type FileRegion struct {
	Fs   afero.Fs
	Path string
	Size int
}

func (f *FileRegion) Cap() int { return f.Size }

func (f *FileRegion) Read() ([]byte, error) {
	b, err := afero.ReadFile(f.Fs, f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errcode.New(errcode.ReadFailed, "retained", f.Path, err)
	}
	return b, nil
}

func (f *FileRegion) Write(b []byte) error {
	if len(b) > f.Size {
		return errcode.RetainedTooSmall
	}
	if err := afero.WriteFile(f.Fs, f.Path, b, 0o644); err != nil {
		return errcode.New(errcode.WriteFailed, "retained", f.Path, err)
	}
	return nil
}
