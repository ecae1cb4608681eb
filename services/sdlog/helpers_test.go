package sdlog

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"envlog-go/retained"
	"envlog-go/services/config"
	"envlog-go/storage"
)

var t0 = time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

func at(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }

// rig is an in-memory medium with per-op counters and fault injection.
type rig struct {
	fs      afero.Fs
	medium  *storage.InstrumentedMedium
	calls   map[storage.Op]int
	flushes map[string]int
	fail    func(op storage.Op, path string) error
}

func newRig(t *testing.T) *rig {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/sd", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	r := &rig{fs: fs, calls: map[storage.Op]int{}, flushes: map[string]int{}}
	r.medium = &storage.InstrumentedMedium{
		Medium: storage.NewAferoMedium(fs, "/sd"),
		Before: func(op storage.Op, path string) error {
			r.calls[op]++
			if r.fail != nil {
				if err := r.fail(op, path); err != nil {
					return err
				}
			}
			if op == storage.OpFlush {
				r.flushes[path]++
			}
			return nil
		},
	}
	return r
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Fields = []string{"timestamp", "temp", "hum", "press"}
	cfg.HealthPath = ""
	return cfg
}

// open mounts the rig and binds a Logger to st. Unmount happens at cleanup.
func (r *rig) open(t *testing.T, cfg config.Config, st *retained.State) *Logger {
	t.Helper()
	v, err := r.medium.Mount()
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	t.Cleanup(func() { _ = r.medium.Unmount() })
	return New(cfg, v, st)
}

func (r *rig) cycle(cfg config.Config, region retained.Region) *Cycle {
	return &Cycle{Config: cfg, Medium: r.medium, Region: region, Now: func() time.Time { return t0 }}
}

func (r *rig) read(t *testing.T, name string) string {
	t.Helper()
	b, err := afero.ReadFile(r.fs, "/sd/"+name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(b)
}

func (r *rig) exists(name string) bool {
	ok, _ := afero.Exists(r.fs, "/sd/"+name)
	return ok
}

func lines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func errorLines(t *testing.T, r *rig, name string) []errorLine {
	t.Helper()
	var out []errorLine
	for _, l := range lines(r.read(t, name)) {
		ln, ok := parseErrorLine(l)
		if !ok {
			t.Fatalf("unparseable error line %q", l)
		}
		out = append(out, ln)
	}
	return out
}
