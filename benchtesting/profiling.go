package benchtesting

import (
	"fmt"

	"github.com/pkg/profile"
)

type noopStopper struct{}

func (noopStopper) Stop() {}

// StartProfiling starts a cpu or mem profile written to dir. Mode "none" or "" profiles nothing.
// The caller must Stop the returned value.
func StartProfiling(mode string, dir string) (interface{ Stop() }, error) {
	if dir == "" {
		dir = "."
	}
	switch mode {
	case "", "none":
		return noopStopper{}, nil
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.NoShutdownHook, profile.Quiet), nil
	case "mem":
		return profile.Start(profile.MemProfileHeap, profile.ProfilePath(dir), profile.NoShutdownHook, profile.Quiet), nil
	}
	return nil, fmt.Errorf("unknown profile mode %q", mode)
}
