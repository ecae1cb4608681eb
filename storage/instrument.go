package storage

// Op names a Volume primitive for Instrumented hooks.
type Op string

const (
	OpAppend Op = "append"
	OpFlush  Op = "flush"
	OpRename Op = "rename"
	OpDelete Op = "delete"
	OpStat   Op = "stat"
	OpTail   Op = "tail"
)

// Instrumented wraps a Volume with a hook consulted before every primitive.
// A non-nil error from Before is returned in place of the call. The
// simulator uses it for fault injection; tests use it to count flushes.
type Instrumented struct {
	Volume
	Before func(op Op, path string) error
}

func (i *Instrumented) before(op Op, path string) error {
	if i.Before == nil {
		return nil
	}
	return i.Before(op, path)
}

func (i *Instrumented) Append(path string, p []byte) error {
	if err := i.before(OpAppend, path); err != nil {
		return err
	}
	return i.Volume.Append(path, p)
}

func (i *Instrumented) Flush(path string) error {
	if err := i.before(OpFlush, path); err != nil {
		return err
	}
	return i.Volume.Flush(path)
}

func (i *Instrumented) Rename(oldPath, newPath string) error {
	if err := i.before(OpRename, oldPath); err != nil {
		return err
	}
	return i.Volume.Rename(oldPath, newPath)
}

func (i *Instrumented) Delete(path string) error {
	if err := i.before(OpDelete, path); err != nil {
		return err
	}
	return i.Volume.Delete(path)
}

func (i *Instrumented) Stat(path string) (int64, bool, error) {
	if err := i.before(OpStat, path); err != nil {
		return 0, false, err
	}
	return i.Volume.Stat(path)
}

func (i *Instrumented) Tail(path string, n int) ([]byte, error) {
	if err := i.before(OpTail, path); err != nil {
		return nil, err
	}
	return i.Volume.Tail(path, n)
}

// InstrumentedMedium wraps every Volume mounted from Medium.
type InstrumentedMedium struct {
	Medium
	Before func(op Op, path string) error
}

func (m *InstrumentedMedium) Mount() (Volume, error) {
	v, err := m.Medium.Mount()
	if err != nil {
		return nil, err
	}
	return &Instrumented{Volume: v, Before: m.Before}, nil
}
