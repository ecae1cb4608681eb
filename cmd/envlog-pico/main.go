//go:build rp2040 || rp2350

// Command envlog-pico is the logger firmware: wake, sample, log, sleep.
//
// "Sleep" is a delay followed by a watchdog reboot, which wipes RAM the
// way deep sleep does on the ESP32 loggers. Only the watchdog scratch
// registers and the SD card survive.
package main

import (
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx"

	"envlog-go/retained"
	"envlog-go/services/config"
	"envlog-go/services/sdlog"
	"envlog-go/storage"
	"envlog-go/x/fmtx"
)

// overlayPath is an optional YAML overlay on the card root.
const overlayPath = "logger.yaml"

func main() {
	_ = uartx.UART0.Configure(uartx.UARTConfig{
		BaudRate: 115200,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})
	fmtx.DefaultOutput = uartx.UART0
	println("Info: envlog boot")

	cfg, err := config.ForDevice("pico")
	if err != nil {
		println("Warn: config:", err.Error())
	}
	log := fmtx.Logger{Prefix: "main", Verbose: cfg.Debug}

	hw := setupHardware()
	medium := storage.NewSDMedium(storage.SDConfig{
		SPI: machine.SPI0,
		SCK: machine.GP18,
		SDO: machine.GP19,
		SDI: machine.GP16,
		CS:  machine.GP17,
	})
	cfg = loadOverlay(medium, cfg, log)
	log.Verbose = cfg.Debug

	smp := hw.sampler(cfg)
	cycle := &sdlog.Cycle{
		Config: cfg,
		Medium: medium,
		Region: retained.ScratchRegion{},
		Now:    hw.now,
	}
	err = cycle.Run(func(lg *sdlog.Logger) error {
		ts := hw.now()
		row := smp.Sample(ts, lg)
		if err := lg.AppendRow(row, ts); err != nil {
			log.Debugf("row: %v", err)
		}
		if err := lg.AppendHealth(ts); err != nil {
			log.Debugf("health: %v", err)
		}
		return nil
	})
	if err != nil {
		log.Warnf("cycle: %v", err)
	}

	sleep(cfg.SampleInterval)
}

// loadOverlay applies logger.yaml from the card when present. The card is
// mounted for the read only; the cycle mounts it again.
func loadOverlay(m storage.Medium, cfg config.Config, log fmtx.Logger) config.Config {
	var raw []byte
	err := storage.WithMount(m, func(v storage.Volume) error {
		size, ok, err := v.Stat(overlayPath)
		if err != nil || !ok || size == 0 {
			return err
		}
		raw, err = v.Tail(overlayPath, int(size))
		return err
	})
	if err != nil || len(raw) == 0 {
		return cfg
	}
	next, err := config.Parse(cfg, raw)
	if err != nil {
		log.Warnf("%s ignored: %v", overlayPath, err)
		return cfg
	}
	log.Infof("applied %s", overlayPath)
	return next
}

// sleep waits out the interval and reboots through the watchdog.
func sleep(d time.Duration) {
	if d <= 0 {
		d = config.DefaultSampleInterval
	}
	println("Info: sleeping", int(d/time.Second), "s")
	time.Sleep(d)
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 1})
	machine.Watchdog.Start()
	for {
		time.Sleep(time.Second)
	}
}
