package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID. Val: YAML overlay on Default().
// -----------------------------------------------------------------------------

const cfgPico = `
debug: false
sample_interval: 5m
`

// The bench unit rotates early and keeps fewer backlog files so rotation
// can be watched without waiting for 500 reports.
const cfgBench = `
debug: true
sample_interval: 10s
flush_row_limit: 2
error_row_limit: 20
error_retention: 2
default_throttle: 2m
loop_throttle: 30s
`

var embeddedConfigs = map[string][]byte{
	"pico":  []byte(cfgPico),
	"bench": []byte(cfgBench),
}
