//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/bmp280"
	"tinygo.org/x/drivers/ds3231"
	"tinygo.org/x/drivers/sht4x"

	"envlog-go/drivers/aht20"
	"envlog-go/services/config"
	"envlog-go/services/sampler"
	"envlog-go/services/sdlog"
)

// hardware is the shared I2C bus and what answered on it at boot. The
// SHT4x sits alone on the second bus.
type hardware struct {
	rtc    *ds3231.Device
	bmp    *bmp280.Device
	aht    *aht20.Device
	sht    *sht4x.Device
	rtcBad bool
}

func setupHardware() *hardware {
	i2c0 := machine.I2C0
	_ = i2c0.Configure(machine.I2CConfig{
		Frequency: 100 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	})
	i2c1 := machine.I2C1
	_ = i2c1.Configure(machine.I2CConfig{
		Frequency: 100 * machine.KHz,
		SDA:       machine.I2C1_SDA_PIN,
		SCL:       machine.I2C1_SCL_PIN,
	})

	hw := &hardware{}

	rtc := ds3231.New(i2c0)
	rtc.Configure()
	if rtc.IsTimeValid() {
		hw.rtc = &rtc
	} else {
		println("Warn: rtc time invalid")
	}

	bmp := bmp280.New(i2c0)
	bmp.Address = 0x76
	if bmp.Connected() {
		bmp.Configure(bmp280.STANDBY_125MS, bmp280.FILTER_4X, bmp280.SAMPLING_2X, bmp280.SAMPLING_16X, bmp280.MODE_FORCED)
		hw.bmp = &bmp
	} else {
		println("Warn: bmp280 not found")
	}

	aht := aht20.New(i2c0, aht20.Config{})
	if err := aht.Configure(); err == nil {
		hw.aht = aht
	} else {
		println("Warn: aht20:", err.Error())
	}

	sht := sht4x.New(i2c1)
	hw.sht = &sht
	return hw
}

// now reads the RTC. Without one the engine stamps rows with the zero
// time, which renders as 0000-00-00 00:00:00.
func (hw *hardware) now() time.Time {
	if hw.rtc == nil {
		return time.Time{}
	}
	t, err := hw.rtc.ReadTime()
	if err != nil {
		return time.Time{}
	}
	return t
}

// sampler lays the sensors out in the stock column order. ds18b20 and the
// particulate sensor are not fitted to this board; their columns stay
// absent.
func (hw *hardware) sampler(cfg config.Config) *sampler.Sampler {
	s := &sampler.Sampler{Slots: []sampler.Slot{
		{Name: "bmp280", Width: 2},
		{Name: "aht20", Width: 2},
		{Name: "ds18b20", Width: 1},
		{Name: "sht4x", Width: 2},
		{Name: "pm", Width: 3},
	}}
	if hw.bmp != nil {
		s.Slots[0].Sensor = bmpSensor{hw.bmp}
	}
	if hw.aht != nil {
		s.Slots[1].Sensor = sampler.AHT20{Dev: hw.aht}
	}
	if hw.sht != nil {
		s.Slots[3].Sensor = shtSensor{hw.sht}
	}
	if w := len(cfg.Fields) - 1; w != s.Width() {
		println("Warn: schema has", w, "readings, sampler provides", s.Width())
	}
	return s
}

type bmpSensor struct{ d *bmp280.Device }

func (bmpSensor) Name() string { return "bmp280" }
func (bmpSensor) Width() int   { return 2 }

// Read reports C and hPa.
func (b bmpSensor) Read(out []sdlog.Value) error {
	mc, err := b.d.ReadTemperature()
	if err != nil {
		return err
	}
	mpa, err := b.d.ReadPressure()
	if err != nil {
		return err
	}
	out[0] = sdlog.Float(float64(mc) / 1000)
	out[1] = sdlog.Float(float64(mpa) / 100_000)
	return nil
}

type shtSensor struct{ d *sht4x.Device }

func (shtSensor) Name() string { return "sht4x" }
func (shtSensor) Width() int   { return 2 }

func (s shtSensor) Read(out []sdlog.Value) error {
	mc, mrh, err := s.d.ReadTemperatureHumidity()
	if err != nil {
		return err
	}
	out[0] = sdlog.Float(float64(mc) / 1000)
	out[1] = sdlog.Float(float64(mrh) / 1000)
	return nil
}
