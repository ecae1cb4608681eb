package storage

import (
	"errors"
	"io"
	"os"
	"sort"

	"github.com/spf13/afero"

	"envlog-go/errcode"
)

// AferoMedium backs the medium with an afero filesystem rooted at Root.
// Hosts use afero.NewOsFs(); tests use afero.NewMemMapFs(). A missing Root
// behaves like an absent card.
type AferoMedium struct {
	Fs   afero.Fs
	Root string

	vol *aferoVolume
}

// NewAferoMedium returns a medium over fs rooted at root.
func NewAferoMedium(fs afero.Fs, root string) *AferoMedium {
	return &AferoMedium{Fs: fs, Root: root}
}

func (m *AferoMedium) Mount() (Volume, error) {
	if m.vol != nil {
		return nil, &errcode.E{C: errcode.MediumUnavailable, Op: "mount", Msg: "already mounted"}
	}
	fs := m.Fs
	if m.Root != "" {
		fi, err := fs.Stat(m.Root)
		if err != nil {
			return nil, errcode.New(errcode.MediumUnavailable, "mount", m.Root, err)
		}
		if !fi.IsDir() {
			return nil, &errcode.E{C: errcode.MediumUnavailable, Op: "mount", Path: m.Root, Msg: "not a directory"}
		}
		fs = afero.NewBasePathFs(fs, m.Root)
	}
	m.vol = &aferoVolume{fs: fs, open: make(map[string]afero.File)}
	return m.vol, nil
}

func (m *AferoMedium) Unmount() error {
	if m.vol == nil {
		return nil
	}
	err := m.vol.closeAll()
	m.vol = nil
	return err
}

type aferoVolume struct {
	fs   afero.Fs
	open map[string]afero.File
}

func (v *aferoVolume) handle(path string) (afero.File, error) {
	if f, ok := v.open[path]; ok {
		return f, nil
	}
	f, err := v.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	v.open[path] = f
	return f, nil
}

func (v *aferoVolume) Append(path string, p []byte) error {
	f, err := v.handle(path)
	if err != nil {
		return errcode.New(errcode.WriteFailed, "append", path, err)
	}
	n, err := f.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		// Drop the handle; a fresh open next time beats a wedged descriptor.
		_ = f.Close()
		delete(v.open, path)
		return errcode.New(errcode.WriteFailed, "append", path, err)
	}
	return nil
}

func (v *aferoVolume) Flush(path string) error {
	f, ok := v.open[path]
	if !ok {
		return nil
	}
	if err := f.Sync(); err != nil {
		return errcode.New(errcode.FlushFailed, "flush", path, err)
	}
	return nil
}

func (v *aferoVolume) release(path string) error {
	f, ok := v.open[path]
	if !ok {
		return nil
	}
	delete(v.open, path)
	return f.Close()
}

func (v *aferoVolume) Rename(oldPath, newPath string) error {
	if _, err := v.fs.Stat(oldPath); err != nil {
		return missingOr(errcode.RenameFailed, "rename", oldPath, err)
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

func (v *aferoVolume) Delete(path string) error {
	_ = v.release(path)
	if err := v.fs.Remove(path); err != nil {
		return missingOr(errcode.DeleteFailed, "delete", path, err)
	}
	return nil
}

func (v *aferoVolume) Stat(path string) (int64, bool, error) {
	fi, err := v.fs.Stat(path)
	if err != nil {
		return statResult(path, 0, err, notExist)
	}
	return statResult(path, fi.Size(), nil, notExist)
}

func notExist(err error) bool { return errors.Is(err, os.ErrNotExist) }

func (v *aferoVolume) Tail(path string, n int) ([]byte, error) {
	f, err := v.fs.Open(path)
	if err != nil {
		return nil, missingOr(errcode.ReadFailed, "tail", path, err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, errcode.New(errcode.ReadFailed, "tail", path, err)
	}
	off := fi.Size() - int64(n)
	if off < 0 {
		off = 0
	}
	buf := make([]byte, fi.Size()-off)
	if _, err := f.ReadAt(buf, off); err != nil && !errors.Is(err, io.EOF) {
		return nil, errcode.New(errcode.ReadFailed, "tail", path, err)
	}
	return buf, nil
}

func (v *aferoVolume) closeAll() error {
	paths := make([]string, 0, len(v.open))
	for p := range v.open {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	var first error
	for _, p := range paths {
		if err := v.open[p].Close(); err != nil && first == nil {
			first = errcode.New(errcode.FlushFailed, "unmount", p, err)
		}
		delete(v.open, p)
	}
	return first
}

func missingOr(c errcode.Code, op, path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return errcode.New(errcode.NotFound, op, path, err)
	}
	return errcode.New(c, op, path, err)
}
