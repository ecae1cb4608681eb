//go:build !(rp2040 || rp2350)

package main

import (
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"envlog-go/errcode"
	"envlog-go/retained"
	"envlog-go/services/config"
	"envlog-go/services/sampler"
	"envlog-go/services/sdlog"
	"envlog-go/storage"
	"envlog-go/x/fmtx"
	"envlog-go/x/timex"
)

type options struct {
	configPath string
	device     string
	dir        string
	start      string
	cycles     int
	seed       int64

	faultRate   float64
	absentRate  float64
	cardOutRate float64
}

type summary struct {
	cycles      int
	unavailable int
	faults      int
	failed      int
	state       retained.State
}

type sim struct {
	cfg config.Config
	opt options
	rng *rand.Rand
	log fmtx.Logger

	clock   time.Time
	cardOut bool
	faults  int

	medium  storage.Medium
	region  retained.Region
	sampler *sampler.Sampler
}

var errNoAck = errors.New("no ack")

func newSim(fs afero.Fs, cfg config.Config, opt options) (*sim, error) {
	start, err := timex.ParseISO(opt.start)
	if err != nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "start", Msg: opt.start, Err: err}
	}
	if err := fs.MkdirAll(opt.dir, 0o755); err != nil {
		return nil, errcode.New(errcode.MediumUnavailable, "mkdir", opt.dir, err)
	}
	s := &sim{
		cfg:   cfg,
		opt:   opt,
		rng:   rand.New(rand.NewSource(opt.seed)),
		log:   fmtx.Logger{Prefix: "sim", Verbose: cfg.Debug},
		clock: start,
	}
	s.medium = &storage.InstrumentedMedium{
		Medium: &cardSlot{Medium: storage.NewAferoMedium(fs, opt.dir), out: &s.cardOut},
		Before: s.inject,
	}
	s.region = &retained.FileRegion{
		Fs:   fs,
		Path: filepath.Join(opt.dir, cfg.RetainedPath),
		Size: cfg.RetainedBytes,
	}
	s.sampler = s.sensors()
	return s, nil
}

// run simulates n wakes. Working memory is "wiped" between them: nothing
// but the region and the files carries over.
func (s *sim) run(n int) summary {
	var sum summary
	for i := 0; i < n; i++ {
		s.cardOut = s.opt.cardOutRate > 0 && s.rng.Float64() < s.opt.cardOutRate
		c := &sdlog.Cycle{
			Config: s.cfg,
			Medium: s.medium,
			Region: s.region,
			Now:    func() time.Time { return s.clock },
		}
		err := c.Run(s.wake)
		sum.cycles++
		switch {
		case err == nil:
		case errcode.Of(err) == errcode.MediumUnavailable:
			sum.unavailable++
		default:
			sum.failed++
			s.log.Debugf("cycle %d: %v", i, err)
		}
		s.clock = s.clock.Add(s.cfg.SampleInterval)
	}
	sum.faults = s.faults
	sum.state = retained.Load(s.region)
	return sum
}

func (s *sim) wake(lg *sdlog.Logger) error {
	row := s.sampler.Sample(s.clock, lg)
	if err := lg.AppendRow(row, s.clock); err != nil {
		s.log.Debugf("row at %s: %v", timex.ISO(s.clock), err)
	}
	if err := lg.AppendHealth(s.clock); err != nil {
		s.log.Debugf("health at %s: %v", timex.ISO(s.clock), err)
	}
	return nil
}

func (s *sim) inject(op storage.Op, path string) error {
	if s.opt.faultRate <= 0 || s.rng.Float64() >= s.opt.faultRate {
		return nil
	}
	s.faults++
	c := errcode.WriteFailed
	switch op {
	case storage.OpFlush:
		c = errcode.FlushFailed
	case storage.OpRename:
		c = errcode.RenameFailed
	case storage.OpDelete:
		c = errcode.DeleteFailed
	case storage.OpStat:
		c = errcode.StatFailed
	case storage.OpTail:
		c = errcode.ReadFailed
	}
	return &errcode.E{C: c, Op: string(op), Path: path, Msg: "injected"}
}

// sensors lays out the stock schema: bmp280, aht20, ds18b20, sht4x, pm.
// Readings follow a daily cycle so the output looks like weather.
func (s *sim) sensors() *sampler.Sampler {
	day := func() float64 {
		h := float64(s.clock.Hour()) + float64(s.clock.Minute())/60
		return math.Sin(2 * math.Pi * (h - 9) / 24)
	}
	temp := func() float64 { return 15 + 8*day() + s.rng.NormFloat64()*0.2 }
	hum := func() float64 { return math.Max(0, math.Min(100, 60-20*day()+s.rng.NormFloat64())) }

	read := func(id string, cols int, fn func(out []sdlog.Value)) sampler.Slot {
		return sampler.Slot{Name: id, Width: cols, Sensor: sampler.Func{ID: id, Cols: cols, Fn: func(out []sdlog.Value) error {
			if s.opt.absentRate > 0 && s.rng.Float64() < s.opt.absentRate {
				return errNoAck
			}
			fn(out)
			return nil
		}}}
	}
	return &sampler.Sampler{Slots: []sampler.Slot{
		read("bmp280", 2, func(out []sdlog.Value) {
			out[0] = sdlog.Float(temp())
			out[1] = sdlog.Float(1013.25 + s.rng.NormFloat64()*2)
		}),
		read("aht20", 2, func(out []sdlog.Value) {
			out[0] = sdlog.Float(temp())
			out[1] = sdlog.Float(hum())
		}),
		read("ds18b20", 1, func(out []sdlog.Value) {
			out[0] = sdlog.Float(temp() - 0.5)
		}),
		read("sht4x", 2, func(out []sdlog.Value) {
			out[0] = sdlog.Float(temp())
			out[1] = sdlog.Float(hum())
		}),
		// The particulate sensor only runs on the hour; other rows leave
		// it absent.
		read("pm", 3, func(out []sdlog.Value) {
			if s.clock.Minute() != 0 {
				return
			}
			base := 5 + math.Abs(s.rng.NormFloat64())*3
			out[0] = sdlog.Float(base)
			out[1] = sdlog.Float(base * 1.6)
			out[2] = sdlog.Float(base * 2.3)
		}),
	}}
}

// cardSlot reports the card as missing while *out is set.
type cardSlot struct {
	storage.Medium
	out *bool
}

func (c *cardSlot) Mount() (storage.Volume, error) {
	if *c.out {
		return nil, &errcode.E{C: errcode.MediumUnavailable, Op: "mount", Msg: "no card"}
	}
	return c.Medium.Mount()
}
