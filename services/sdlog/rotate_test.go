package sdlog

import (
	"testing"
	"time"

	"envlog-go/errcode"
	"envlog-go/retained"
	"envlog-go/storage"
)

// fill writes n distinct reports, each far enough apart to pass the throttle.
func fill(lg *Logger, from, n int) {
	for i := 0; i < n; i++ {
		lg.AppendError("k", "m", at((from+i)*10), time.Second)
	}
}

func TestRotation_KeepsAtMostRetentionFiles(t *testing.T) {
	const rows, keep = 3, 2
	for m := 0; m <= 5; m++ {
		r := newRig(t)
		cfg := testConfig()
		cfg.ErrorRowLimit = rows
		cfg.ErrorRetention = keep
		var st retained.State
		lg := r.open(t, cfg, &st)

		fill(lg, 0, m*rows)

		backlog := 0
		for i := 1; i <= keep+1; i++ {
			if r.exists(backlogPath("errors.log", i)) {
				backlog++
			}
		}
		want := m
		if want > keep {
			want = keep
		}
		if backlog != want {
			t.Fatalf("M=%d: backlog files = %d, want %d", m, backlog, want)
		}
		if st.ErrorRows != 0 {
			t.Fatalf("M=%d: error rows = %d, want 0", m, st.ErrorRows)
		}
		if m > 0 && r.exists("errors.log") {
			t.Fatalf("M=%d: active file still present after rotation", m)
		}
	}
}

func TestRotation_NewestInSlotOne(t *testing.T) {
	r := newRig(t)
	cfg := testConfig()
	cfg.ErrorRowLimit = 3
	cfg.ErrorRetention = 2
	var st retained.State
	lg := r.open(t, cfg, &st)

	fill(lg, 0, 9)
	fill(lg, 9, 1)

	active := errorLines(t, r, "errors.log")
	newest := errorLines(t, r, "errors.log.1")
	older := errorLines(t, r, "errors.log.2")
	if len(active) != 1 || len(newest) != 3 || len(older) != 3 {
		t.Fatalf("sizes = %d/%d/%d, want 1/3/3", len(active), len(newest), len(older))
	}
	if !older[2].ts.Before(newest[0].ts) || !newest[2].ts.Before(active[0].ts) {
		t.Fatal("backlog out of recency order")
	}
	if !newest[0].ts.Equal(at(60)) {
		t.Fatalf("slot 1 starts at %v, want %v", newest[0].ts, at(60))
	}
}

func TestRotation_ZeroRetentionDeletes(t *testing.T) {
	r := newRig(t)
	cfg := testConfig()
	cfg.ErrorRowLimit = 2
	cfg.ErrorRetention = 0
	var st retained.State
	lg := r.open(t, cfg, &st)

	fill(lg, 0, 2)
	if r.exists("errors.log") || r.exists("errors.log.1") {
		t.Fatal("error files left behind with retention 0")
	}
	fill(lg, 2, 1)
	if got := errorLines(t, r, "errors.log"); len(got) != 1 {
		t.Fatalf("lines = %d, want 1", len(got))
	}
}

func TestRotation_FailureRetriedOnNextReport(t *testing.T) {
	r := newRig(t)
	cfg := testConfig()
	cfg.ErrorRowLimit = 2
	cfg.ErrorRetention = 1
	var st retained.State
	lg := r.open(t, cfg, &st)

	r.fail = func(op storage.Op, path string) error {
		if op == storage.OpRename {
			return errcode.New(errcode.RenameFailed, "rename", path, nil)
		}
		return nil
	}
	fill(lg, 0, 2)
	if st.ErrorRows != 2 || r.exists("errors.log.1") {
		t.Fatalf("error rows = %d after failed rotation, want 2", st.ErrorRows)
	}

	r.fail = nil
	fill(lg, 2, 1)
	if st.ErrorRows != 0 || !r.exists("errors.log.1") {
		t.Fatalf("error rows = %d, want rotation on the next report", st.ErrorRows)
	}
	if got := errorLines(t, r, "errors.log.1"); len(got) != 3 {
		t.Fatalf("rotated lines = %d, want 3", len(got))
	}
}
