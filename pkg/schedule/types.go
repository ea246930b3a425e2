package schedule

import (
	"time"
)

// EnvVar is one environment entry. Processes carry a slice, not a map,
// so emitted artifacts list the environment in a reproducible order.
type EnvVar struct {
	Key   string
	Value string
}

// Process is one OS process of a simulated host, with its computed start
// offset into the simulation. Immutable once generated.
type Process struct {
	Path        string
	Args        []string
	Env         []EnvVar
	StartOffset time.Duration
	// StopOffset is zero for processes that run to the end of the
	// simulation; phase processes carry an explicit stop.
	StopOffset time.Duration
}

// Script is a wrapper script to write to disk before simulation start.
type Script struct {
	Name    string // file name under the scripts directory
	Content string
}

// AgentSchedule is the ordered process list of one agent plus any
// scripts it needs pre-written.
type AgentSchedule struct {
	AgentID   string
	Processes []Process
	Scripts   []Script
}

// Default inter-agent stagger: same-role agents start this far apart to
// avoid simultaneous-startup spikes in the simulator.
const RoleStagger = 1 * time.Second
