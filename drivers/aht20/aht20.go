// Package aht20 drives the AHT20/AHT25 temperature and humidity sensor.
//
// Measurement is two-phase:
//
//	d.Trigger()              // start a conversion
//	err := d.Collect(&s)     // ErrNotReady while the sensor is busy
//
// Measure wraps both with bounded polling, which is what a wake cycle wants:
// one reading, then sleep.
//
// I2C.Tx must perform a write followed by a repeated-start read when both w
// and r are given.
package aht20

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

// Address is the fixed bus address of the part.
const Address = 0x38

const (
	cmdTrigger    = 0xAC
	cmdInitialize = 0xBE
	cmdSoftReset  = 0xBA
	cmdStatus     = 0x71

	statusBusy       = 0x80
	statusCalibrated = 0x08

	fullScale = 0x100000
)

var (
	ErrTimeout  = errors.New("aht20: timeout")
	ErrNotReady = errors.New("aht20: not ready")
	ErrNoDevice = errors.New("aht20: no device")
)

// Config is optional; zero fields take defaults.
type Config struct {
	Address        uint16
	PollInterval   time.Duration // default 15 ms
	CollectTimeout time.Duration // default 250 ms
}

// Device is one sensor on an I2C bus.
type Device struct {
	bus drivers.I2C
	cfg Config
	buf [7]byte
}

// New binds a device to a configured bus. It does not touch the bus.
func New(bus drivers.I2C, cfg Config) *Device {
	if cfg.Address == 0 {
		cfg.Address = Address
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 15 * time.Millisecond
	}
	if cfg.CollectTimeout <= 0 {
		cfg.CollectTimeout = 250 * time.Millisecond
	}
	return &Device{bus: bus, cfg: cfg}
}

// Configure calibrates the sensor if it reports itself uncalibrated. A
// sensor that does not answer the status read returns ErrNoDevice.
func (d *Device) Configure() error {
	st, err := d.Status()
	if err != nil {
		return ErrNoDevice
	}
	if st&statusCalibrated != 0 {
		return nil
	}
	if err := d.bus.Tx(d.cfg.Address, []byte{cmdInitialize, 0x08, 0x00}, nil); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	return nil
}

// Reset issues a soft reset. Allow ~20 ms before the next command.
func (d *Device) Reset() error {
	return d.bus.Tx(d.cfg.Address, []byte{cmdSoftReset}, nil)
}

func (d *Device) Status() (byte, error) {
	data := d.buf[:1]
	if err := d.bus.Tx(d.cfg.Address, []byte{cmdStatus}, data); err != nil {
		return 0, err
	}
	return data[0], nil
}

// Trigger starts a conversion without blocking.
func (d *Device) Trigger() error {
	return d.bus.Tx(d.cfg.Address, []byte{cmdTrigger, 0x33, 0x00}, nil)
}

// Collect reads a finished conversion into out.
func (d *Device) Collect(out *Sample) error {
	data := d.buf[:]
	if err := d.bus.Tx(d.cfg.Address, nil, data); err != nil {
		return err
	}
	if data[0]&statusCalibrated == 0 || data[0]&statusBusy != 0 {
		return ErrNotReady
	}
	out.RawHumidity = uint32(data[1])<<12 | uint32(data[2])<<4 | uint32(data[3])>>4
	out.RawTemp = uint32(data[3]&0x0F)<<16 | uint32(data[4])<<8 | uint32(data[5])
	return nil
}

// Measure triggers a conversion and polls until it completes or
// CollectTimeout elapses.
func (d *Device) Measure() (Sample, error) {
	var s Sample
	if err := d.Trigger(); err != nil {
		return s, err
	}
	deadline := time.Now().Add(d.cfg.CollectTimeout)
	for {
		err := d.Collect(&s)
		if err != ErrNotReady {
			return s, err
		}
		if time.Now().After(deadline) {
			return s, ErrTimeout
		}
		time.Sleep(d.cfg.PollInterval)
	}
}

// Sample holds one raw 20-bit reading pair.
type Sample struct {
	RawHumidity uint32
	RawTemp     uint32
}

// Celsius converts the raw temperature.
func (s Sample) Celsius() float64 {
	return float64(s.RawTemp)*200/fullScale - 50
}

// RelHumidity converts the raw humidity to percent.
func (s Sample) RelHumidity() float64 {
	return float64(s.RawHumidity) * 100 / fullScale
}

// DeciCelsius is Celsius in tenths, without floating point.
func (s Sample) DeciCelsius() int32 {
	return int32(int64(s.RawTemp)*2000/fullScale) - 500
}
