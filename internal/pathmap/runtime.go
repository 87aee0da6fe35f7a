package pathmap

import "time"

// Runtime owns the process-wide collaborators PathMap needs but should
// not hide behind package-level globals (spec §9, "Module-level state":
// "prefer constructing a Runtime value that owns them and is passed to
// each PathMap"). A Runtime may be shared by several PathMaps.
type Runtime struct {
	packrat *packrat
}

// NewRuntime starts a Runtime whose pack-rat retention window is
// packratWindow (spec default: 5 seconds).
func NewRuntime(packratWindow time.Duration) *Runtime {
	return &Runtime{packrat: newPackrat(packratWindow)}
}

// Close stops the Runtime's background goroutines.
func (rt *Runtime) Close() {
	rt.packrat.Close()
}
