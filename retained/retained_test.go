package retained

import (
	"errors"
	"testing"

	"github.com/spf13/afero"

	"envlog-go/errcode"
)

func sample() State {
	return State{
		Unflushed: 3,
		Cycles:    41,
		ErrorRows: 499,
		Throttle: []ThrottleEntry{
			{Kind: "sensor_x", LastReport: 1_700_000_000, Suppressed: 2},
			{Kind: "main_loop_error", LastReport: 1_700_000_300},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	r := NewMemRegion(256)
	if err := Save(r, sample()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got := Load(r)
	if !got.Valid || got.Truncated {
		t.Fatalf("Load flags = valid:%v truncated:%v", got.Valid, got.Truncated)
	}
	if got.Unflushed != 3 || got.Cycles != 41 || got.ErrorRows != 499 {
		t.Fatalf("counters = %+v", got)
	}
	e, ok := got.Entry("sensor_x")
	if !ok || e.LastReport != 1_700_000_000 || e.Suppressed != 2 {
		t.Fatalf("sensor_x entry = %+v, %v", e, ok)
	}
	if _, ok := got.Entry("main_loop_error"); !ok {
		t.Fatal("main_loop_error entry lost")
	}
}

func TestLoadUninitialisedIsZero(t *testing.T) {
	for name, r := range map[string]*MemRegion{
		"zeros":   NewMemRegion(64),
		"garbage": {buf: []byte("this is definitely not a retained image")},
	} {
		got := Load(r)
		if got.Valid || got.Unflushed != 0 || got.ErrorRows != 0 || len(got.Throttle) != 0 {
			t.Fatalf("%s: Load = %+v, want zero invalid state", name, got)
		}
	}
}

func TestLoadCorruptedMarkerOrCRC(t *testing.T) {
	for _, idx := range []int{0, 1, 5, 14} {
		r := NewMemRegion(256)
		if err := Save(r, sample()); err != nil {
			t.Fatalf("Save: %v", err)
		}
		r.Corrupt(idx)
		if got := Load(r); got.Valid {
			t.Fatalf("corrupt byte %d: Load returned valid state %+v", idx, got)
		}
	}
}

func TestEncodeDropsOldestEntriesWhenFull(t *testing.T) {
	s := sample()
	// Room for exactly one entry: the newest ("main_loop_error") survives.
	capacity := MinSize + entryFixed + len("main_loop_error")
	b, err := Encode(s, capacity)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !got.Truncated || len(got.Throttle) != 1 || got.Throttle[0].Kind != "main_loop_error" {
		t.Fatalf("got %+v, want only main_loop_error and Truncated", got)
	}
}

func TestCountersOnlyFitSixteenBytes(t *testing.T) {
	r := NewMemRegion(MinSize)
	if err := Save(r, sample()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got := Load(r)
	if !got.Valid || !got.Truncated || len(got.Throttle) != 0 || got.ErrorRows != 499 {
		t.Fatalf("Load = %+v", got)
	}
}

func TestEncodeTooSmall(t *testing.T) {
	if _, err := Encode(State{}, MinSize-1); !errors.Is(err, errcode.RetainedTooSmall) {
		t.Fatalf("err = %v, want retained_too_small", err)
	}
}

func TestFileRegion(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := &FileRegion{Fs: fs, Path: "/sd/.retained", Size: 128}
	if got := Load(r); got.Valid {
		t.Fatalf("missing file loaded as valid: %+v", got)
	}
	if err := Save(r, sample()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := Load(r); !got.Valid || got.Cycles != 41 {
		t.Fatalf("Load = %+v", got)
	}
}

func TestUpsertEvictsLeastRecent(t *testing.T) {
	s := sample()
	e := s.Upsert("new_kind", 2)
	e.LastReport = 1_800_000_000
	if _, ok := s.Entry("sensor_x"); ok {
		t.Fatal("sensor_x (oldest) should have been evicted")
	}
	if len(s.Throttle) != 2 {
		t.Fatalf("table size = %d, want 2", len(s.Throttle))
	}
}

func TestStaleImageLoadsInvalid(t *testing.T) {
	r := NewMemRegion(64)
	s := State{Cycles: 2, Stale: true}
	if err := Save(r, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got := Load(r)
	if got.Valid || !got.Stale || got.Cycles != 2 {
		t.Fatalf("Load = %+v, want stale and invalid with cycles 2", got)
	}
}

func TestTruncatedSurvivesEmptyTable(t *testing.T) {
	r := NewMemRegion(256)
	if err := Save(r, State{ErrorRows: 10, Truncated: true}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := Load(r); !got.Valid || !got.Truncated {
		t.Fatalf("Load = %+v, want valid and truncated", got)
	}
}

func TestSize(t *testing.T) {
	s := sample()
	b, err := Encode(s, 1024)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if Size(s) != len(b) {
		t.Fatalf("Size = %d, encoded %d", Size(s), len(b))
	}
	if Size(State{}) != MinSize || MaxSize(0) != MinSize {
		t.Fatalf("empty size = %d / %d", Size(State{}), MaxSize(0))
	}
}
