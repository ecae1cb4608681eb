// Package sampler reads the wake cycle's sensors into one data row. A
// sensor that is missing or fails leaves its columns absent; failures are
// reported per sensor through the logging engine's throttle.
package sampler

import (
	"time"

	"envlog-go/drivers/aht20"
	"envlog-go/services/sdlog"
)

// Sensor produces Width consecutive columns of the row.
type Sensor interface {
	Name() string
	Width() int
	// Read fills out, len(out) == Width(). Columns it cannot provide are
	// left as sdlog.Absent.
	Read(out []sdlog.Value) error
}

// Reporter receives sensor faults; *sdlog.Logger implements it.
type Reporter interface {
	AppendError(kind, msg string, ts time.Time, window time.Duration)
}

// Slot is a reserved block of columns. A nil Sensor keeps the block absent,
// for hardware that is not fitted or failed to initialise.
type Slot struct {
	Name   string
	Width  int
	Sensor Sensor
}

// Sampler lays sensors out in schema order.
type Sampler struct {
	Slots []Slot
}

// Width is the number of reading columns (the schema minus the timestamp).
func (s *Sampler) Width() int {
	n := 0
	for _, sl := range s.Slots {
		n += sl.Width
	}
	return n
}

// Sample reads every slot. It never fails: the row is complete even when
// every sensor is broken.
func (s *Sampler) Sample(ts time.Time, rep Reporter) sdlog.Row {
	row := make(sdlog.Row, s.Width())
	off := 0
	for _, sl := range s.Slots {
		cols := row[off : off+sl.Width]
		off += sl.Width
		if sl.Sensor == nil {
			continue
		}
		if err := sl.Sensor.Read(cols); err != nil {
			clear(cols)
			if rep != nil {
				rep.AppendError(sl.Name+"_read_error", err.Error(), ts, 0)
			}
		}
	}
	return row
}

// AHT20 reports temperature (C) and relative humidity (%).
type AHT20 struct {
	Dev *aht20.Device
}

func (AHT20) Name() string { return "aht" }
func (AHT20) Width() int   { return 2 }

func (a AHT20) Read(out []sdlog.Value) error {
	s, err := a.Dev.Measure()
	if err != nil {
		return err
	}
	out[0] = sdlog.Float(s.Celsius())
	out[1] = sdlog.Float(s.RelHumidity())
	return nil
}

// Func adapts a plain function, mostly for readings computed elsewhere.
type Func struct {
	ID   string
	Cols int
	Fn   func(out []sdlog.Value) error
}

func (f Func) Name() string                 { return f.ID }
func (f Func) Width() int                   { return f.Cols }
func (f Func) Read(out []sdlog.Value) error { return f.Fn(out) }
