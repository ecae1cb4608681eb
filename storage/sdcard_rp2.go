//go:build rp2040 || rp2350

package storage

import (
	"errors"
	"io"
	"os"

	"machine"

	"tinygo.org/x/drivers/sdcard"
	"tinygo.org/x/tinyfs"
	"tinygo.org/x/tinyfs/fatfs"

	"envlog-go/errcode"
)

// SDConfig wires an SD card on an SPI bus.
type SDConfig struct {
	SPI *machine.SPI
	SCK machine.Pin
	SDO machine.Pin
	SDI machine.Pin
	CS  machine.Pin
}

// SDMedium is a FAT-formatted SD card. Each Mount re-initialises the card so
// a swapped or re-seated card is picked up on the next wake.
type SDMedium struct {
	cfg SDConfig
	dev sdcard.Device
	fs  *fatfs.FATFS
	vol *tinyVolume
}

func NewSDMedium(cfg SDConfig) *SDMedium { return &SDMedium{cfg: cfg} }

func (m *SDMedium) Mount() (Volume, error) {
	if m.vol != nil {
		return nil, &errcode.E{C: errcode.MediumUnavailable, Op: "mount", Msg: "already mounted"}
	}
	m.dev = sdcard.New(m.cfg.SPI, m.cfg.SCK, m.cfg.SDO, m.cfg.SDI, m.cfg.CS)
	if err := m.dev.Configure(); err != nil {
		return nil, errcode.New(errcode.MediumUnavailable, "mount", "sdcard", err)
	}
	m.fs = fatfs.New(&m.dev)
	m.fs.Configure(&fatfs.Config{SectorSize: 512})
	if err := m.fs.Mount(); err != nil {
		return nil, errcode.New(errcode.MediumUnavailable, "mount", "fat", err)
	}
	m.vol = &tinyVolume{fs: m.fs, open: make(map[string]tinyfs.File)}
	return m.vol, nil
}

func (m *SDMedium) Unmount() error {
	if m.vol == nil {
		return nil
	}
	err := m.vol.closeAll()
	m.vol = nil
	if uerr := m.fs.Unmount(); uerr != nil && err == nil {
		err = errcode.New(errcode.FlushFailed, "unmount", "fat", uerr)
	}
	return err
}

type tinyVolume struct {
	fs   tinyfs.Filesystem
	open map[string]tinyfs.File
}

func (v *tinyVolume) handle(path string) (tinyfs.File, error) {
	if f, ok := v.open[path]; ok {
		return f, nil
	}
	f, err := v.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND)
	if err != nil {
		return nil, err
	}
	v.open[path] = f
	return f, nil
}

func (v *tinyVolume) Append(path string, p []byte) error {
	f, err := v.handle(path)
	if err != nil {
		return errcode.New(errcode.WriteFailed, "append", path, err)
	}
	n, err := f.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		_ = f.Close()
		delete(v.open, path)
		return errcode.New(errcode.WriteFailed, "append", path, err)
	}
	return nil
}

// Flush syncs the FAT entry. Handles without Sync are closed, which commits
// the same state; the next Append reopens.
func (v *tinyVolume) Flush(path string) error {
	f, ok := v.open[path]
	if !ok {
		return nil
	}
	if s, ok := f.(interface{ Sync() error }); ok {
		if err := s.Sync(); err != nil {
			return errcode.New(errcode.FlushFailed, "flush", path, err)
		}
		return nil
	}
	delete(v.open, path)
	if err := f.Close(); err != nil {
		return errcode.New(errcode.FlushFailed, "flush", path, err)
	}
	return nil
}

func (v *tinyVolume) release(path string) error {
	f, ok := v.open[path]
	if !ok {
		return nil
	}
	delete(v.open, path)
	return f.Close()
}

func (v *tinyVolume) Rename(oldPath, newPath string) error {
	if _, err := v.fs.Stat(oldPath); err != nil {
		return errcode.New(errcode.NotFound, "rename", oldPath, err)
	}
	if err := v.release(oldPath); err != nil {
		return errcode.New(errcode.FlushFailed, "rename", oldPath, err)
	}
	_ = v.release(newPath)
	if err := v.fs.Rename(oldPath, newPath); err != nil {
		return errcode.New(errcode.RenameFailed, "rename", oldPath, err)
	}
	return nil
}

func (v *tinyVolume) Delete(path string) error {
	_ = v.release(path)
	if _, err := v.fs.Stat(path); err != nil {
		return errcode.New(errcode.NotFound, "delete", path, err)
	}
	if err := v.fs.Remove(path); err != nil {
		return errcode.New(errcode.DeleteFailed, "delete", path, err)
	}
	return nil
}

func (v *tinyVolume) Stat(path string) (int64, bool, error) {
	fi, err := v.fs.Stat(path)
	if err != nil {
		return statResult(path, 0, err, fatMissing)
	}
	return statResult(path, fi.Size(), nil, fatMissing)
}

// fatMissing reports whether err is FatFs saying the file or a directory on
// its path does not exist.
func fatMissing(err error) bool {
	return errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, fatfs.FileResultNoFile) ||
		errors.Is(err, fatfs.FileResultNoPath)
}

func (v *tinyVolume) Tail(path string, n int) ([]byte, error) {
	fi, err := v.fs.Stat(path)
	if err != nil {
		if fatMissing(err) {
			return nil, errcode.New(errcode.NotFound, "tail", path, err)
		}
		return nil, errcode.New(errcode.ReadFailed, "tail", path, err)
	}
	f, err := v.fs.Open(path)
	if err != nil {
		return nil, errcode.New(errcode.ReadFailed, "tail", path, err)
	}
	defer f.Close()
	off := fi.Size() - int64(n)
	if off < 0 {
		off = 0
	}
	if sk, ok := f.(io.Seeker); ok {
		if _, err := sk.Seek(off, io.SeekStart); err != nil {
			return nil, errcode.New(errcode.ReadFailed, "tail", path, err)
		}
	} else if _, err := io.CopyN(io.Discard, f, off); err != nil {
		return nil, errcode.New(errcode.ReadFailed, "tail", path, err)
	}
	buf := make([]byte, fi.Size()-off)
	if _, err := io.ReadFull(f, buf); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, errcode.New(errcode.ReadFailed, "tail", path, err)
	}
	return buf, nil
}

func (v *tinyVolume) closeAll() error {
	var first error
	for p, f := range v.open {
		if err := f.Close(); err != nil && first == nil {
			first = errcode.New(errcode.FlushFailed, "unmount", p, err)
		}
		delete(v.open, p)
	}
	return first
}
