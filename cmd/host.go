package cmd

import "github.com/towel808/towel/engine"

// FollowSampleRate prepares e for the host's output rate when it is known and
// differs from the rate e renders at. Call it between blocks only. It reports
// whether e was prepared again.
func FollowSampleRate(e *engine.Engine, hostRate float64) bool {
	if !(hostRate > 0) || hostRate == e.SampleRate() {
		return false
	}
	e.Prepare(hostRate)
	return true
}
