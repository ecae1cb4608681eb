package sdlog

import (
	"time"

	"envlog-go/errcode"
	"envlog-go/retained"
	"envlog-go/services/config"
	"envlog-go/storage"
	"envlog-go/x/fmtx"
)

// Cycle runs one wake cycle: load the retained state, mount the medium,
// hand a Logger to the caller, write the throttle sidecar if the region is
// too small for the table, unmount, save. Save happens on every exit
// path, including an unmountable medium and a panicking caller.
type Cycle struct {
	Config config.Config
	Medium storage.Medium
	Region retained.Region
	// Now stamps faults the engine reports on the caller's behalf.
	Now func() time.Time
}

// Run executes fn inside a mounted cycle. An error returned by fn, or a
// panic, is reported as main_loop_error and returned. A medium that cannot
// be mounted returns errcode.MediumUnavailable without calling fn; the
// caller should go back to sleep and try again next wake.
func (c *Cycle) Run(fn func(*Logger) error) (err error) {
	log := fmtx.Logger{Prefix: "cycle", Verbose: c.Config.Debug}
	st := retained.Load(c.Region)
	if !st.Valid {
		log.Debugf("retained state invalid or stale, reconciling with the medium")
		// Stays set until Reconcile runs, so a cycle that cannot mount does
		// not save unchecked counters as trusted.
		st.Stale = true
	}
	st.Cycles++

	defer func() {
		if serr := retained.Save(c.Region, st); serr != nil {
			log.Warnf("retained save: %v", serr)
			if err == nil {
				err = serr
			}
		}
	}()

	err = storage.WithMount(c.Medium, func(v storage.Volume) (ferr error) {
		lg := New(c.Config, v, &st)
		lg.Reconcile()
		defer lg.SaveThrottle(c.Region.Cap())
		defer func() {
			if r := recover(); r != nil {
				ferr = &errcode.E{C: errcode.Fault, Op: "cycle", Msg: fmtx.Sprint(r)}
				lg.ReportLoopError(ferr.Error(), c.now())
			}
		}()
		if ferr = fn(lg); ferr != nil {
			lg.ReportLoopError(ferr.Error(), c.now())
		}
		return ferr
	})
	if errcode.Of(err) == errcode.MediumUnavailable {
		log.Warnf("medium unavailable: %v", err)
	}
	return err
}

func (c *Cycle) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
