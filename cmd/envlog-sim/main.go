//go:build !(rp2040 || rp2350)

// Command envlog-sim drives the logging engine through simulated wake
// cycles against a directory. Each cycle gets a fresh engine and the
// retained image lives in a sidecar file, which is how the firmware sees
// the world across deep sleep.
package main

import (
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"envlog-go/services/config"
	"envlog-go/x/fmtx"
)

func main() {
	fl := pflag.NewFlagSet("envlog-sim", pflag.ExitOnError)
	var opt options
	fl.StringVar(&opt.configPath, "config", "", "YAML config file overlaid on the device defaults")
	fl.StringVar(&opt.device, "device", "bench", "embedded device profile")
	fl.StringVar(&opt.dir, "dir", "./sd", "directory standing in for the SD card")
	fl.IntVar(&opt.cycles, "cycles", 100, "wake cycles to simulate")
	fl.Float64Var(&opt.faultRate, "fault-rate", 0, "probability that a storage primitive fails")
	fl.Float64Var(&opt.absentRate, "absent-rate", 0.05, "probability that a sensor read fails")
	fl.Float64Var(&opt.cardOutRate, "card-out-rate", 0, "probability that the card is missing for a cycle")
	fl.Int64Var(&opt.seed, "seed", 1, "random seed")
	fl.StringVar(&opt.start, "start", "2024-01-01 00:00:00", "simulated clock at the first wake")
	fl.Duration("interval", config.DefaultSampleInterval, "simulated sleep between wakes")
	_ = fl.Parse(os.Args[1:])

	log := fmtx.Logger{Prefix: "sim"}

	v, err := config.NewViper(opt.configPath)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(2)
	}
	_ = v.BindPFlag("sample_interval", fl.Lookup("interval"))

	base, err := config.ForDevice(opt.device)
	if err != nil {
		log.Errorf("device %q: %v", opt.device, err)
		os.Exit(2)
	}
	cfg, err := config.FromViper(v, base)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(2)
	}
	log.Verbose = cfg.Debug

	s, err := newSim(afero.NewOsFs(), cfg, opt)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
	sum := s.run(opt.cycles)
	log.Infof("%d cycles, %d without medium, %d injected faults, %d failed cycles",
		sum.cycles, sum.unavailable, sum.faults, sum.failed)
	log.Infof("retained: unflushed=%d error_rows=%d kinds=%d",
		sum.state.Unflushed, sum.state.ErrorRows, len(sum.state.Throttle))
}
