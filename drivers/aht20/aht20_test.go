package aht20

import (
	"errors"
	"math"
	"testing"
	"time"

	"tinygo.org/x/drivers"
)

var _ drivers.I2C = (*fakeI2C)(nil)

// fakeI2C scripts an AHT20: busy for a while after each trigger.
type fakeI2C struct {
	calib      bool
	absent     bool
	busyPolls  int
	pending    int
	inits      int
	hraw, traw uint32
}

func newFake() *fakeI2C {
	// 25.0 C, ~55.0 %RH
	return &fakeI2C{calib: true, hraw: 576_717, traw: 393_216}
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	if f.absent {
		return errors.New("nack")
	}
	switch {
	case len(w) == 1 && w[0] == cmdStatus && len(r) == 1:
		r[0] = f.status()
	case len(w) == 3 && w[0] == cmdInitialize:
		f.inits++
		f.calib = true
	case len(w) == 3 && w[0] == cmdTrigger:
		f.pending = f.busyPolls
	case len(w) == 0 && len(r) == 7:
		r[0] = f.status()
		if f.pending > 0 {
			f.pending--
		}
		h, t := f.hraw, f.traw
		r[1] = byte(h >> 12)
		r[2] = byte(h >> 4)
		r[3] = byte(h&0xF)<<4 | byte(t>>16)&0x0F
		r[4] = byte(t >> 8)
		r[5] = byte(t)
	}
	return nil
}

func (f *fakeI2C) status() byte {
	var s byte
	if f.calib {
		s |= statusCalibrated
	}
	if f.pending > 0 {
		s |= statusBusy
	}
	return s
}

func TestMeasure(t *testing.T) {
	bus := newFake()
	bus.busyPolls = 2
	d := New(bus, Config{PollInterval: time.Millisecond})
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	s, err := d.Measure()
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if got := s.DeciCelsius(); got != 250 {
		t.Fatalf("deci C = %d, want 250", got)
	}
	if got := s.RelHumidity(); math.Abs(got-55) > 0.01 {
		t.Fatalf("RH = %v, want 55", got)
	}
}

func TestMeasureTimeout(t *testing.T) {
	bus := newFake()
	bus.busyPolls = 1 << 30
	d := New(bus, Config{PollInterval: time.Millisecond, CollectTimeout: 5 * time.Millisecond})
	if _, err := d.Measure(); err != ErrTimeout {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestConfigureCalibratesOnce(t *testing.T) {
	bus := newFake()
	bus.calib = false
	d := New(bus, Config{})
	_ = d.Configure()
	_ = d.Configure()
	if bus.inits != 1 {
		t.Fatalf("inits = %d, want 1", bus.inits)
	}
}

func TestConfigureNoDevice(t *testing.T) {
	d := New(&fakeI2C{absent: true}, Config{})
	if err := d.Configure(); err != ErrNoDevice {
		t.Fatalf("err = %v, want ErrNoDevice", err)
	}
}
