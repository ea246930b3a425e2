package connectivity

import (
	"errors"
	"fmt"
)

// DiscoveryMode is the strategy by which simulated daemons learn peers.
type DiscoveryMode int

const (
	// Automatic relies on the protocol's own discovery, biased by seed priority
	Automatic DiscoveryMode = iota
	// Explicit hands every daemon an authoritative peer list
	Explicit
	// Hybrid combines template connections with a discovery responder
	Hybrid
)

// String returns the configuration spelling of the mode.
func (m DiscoveryMode) String() string {
	switch m {
	case Automatic:
		return "automatic"
	case Explicit:
		return "explicit"
	case Hybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// ParseMode converts a configuration string to a DiscoveryMode.
func ParseMode(s string) (DiscoveryMode, error) {
	switch s {
	case "automatic":
		return Automatic, nil
	case "explicit":
		return Explicit, nil
	case "hybrid":
		return Hybrid, nil
	default:
		return 0, fmt.Errorf("unknown discovery mode %q (want automatic, explicit or hybrid)", s)
	}
}

// Template is a fixed connection pattern applied to explicit peer lists.
type Template int

const (
	// DAG links each agent to a small set of earlier-indexed agents. Default.
	DAG Template = iota
	// HubSpoke connects every agent to the first one
	HubSpoke
	// Mesh connects all pairs
	Mesh
	// Ring connects each agent to its successor, wrapping
	Ring
)

// String returns the configuration spelling of the template.
func (t Template) String() string {
	switch t {
	case DAG:
		return "dag"
	case HubSpoke:
		return "hub_spoke"
	case Mesh:
		return "mesh"
	case Ring:
		return "ring"
	default:
		return "unknown"
	}
}

// ParseTemplate converts a configuration string to a Template. The empty
// string selects the default.
func ParseTemplate(s string) (Template, error) {
	switch s {
	case "", "dag":
		return DAG, nil
	case "hub_spoke":
		return HubSpoke, nil
	case "mesh":
		return Mesh, nil
	case "ring":
		return Ring, nil
	default:
		return 0, fmt.Errorf("unknown topology template %q (want hub_spoke, mesh, ring or dag)", s)
	}
}

// MeshWarnLimit is the daemon count above which a full mesh is accepted
// with a warning; connection count grows quadratically past this point.
const MeshWarnLimit = 50

// ErrTooFewAgents signals a template whose minimum daemon count is unmet.
var ErrTooFewAgents = errors.New("too few daemon agents for template")

// comboCheck validates one (mode, template) combination against the
// daemon-bearing agent count. One function per combination, selected by
// the validation table, never string comparison at call sites.
type comboCheck func(daemons int) error

func checkHubSpoke(daemons int) error {
	if daemons < 2 {
		return fmt.Errorf("%w: hub_spoke needs at least 2, got %d", ErrTooFewAgents, daemons)
	}
	return nil
}

func checkRing(daemons int) error {
	if daemons < 3 {
		return fmt.Errorf("%w: ring needs at least 3, got %d", ErrTooFewAgents, daemons)
	}
	return nil
}

func checkAny(int) error { return nil }

var comboChecks = map[DiscoveryMode]map[Template]comboCheck{
	Automatic: {
		// Templates do not apply in automatic mode; any count works.
		DAG: checkAny, HubSpoke: checkAny, Mesh: checkAny, Ring: checkAny,
	},
	Explicit: {
		DAG: checkAny, HubSpoke: checkHubSpoke, Mesh: checkAny, Ring: checkRing,
	},
	Hybrid: {
		DAG: checkAny, HubSpoke: checkHubSpoke, Mesh: checkAny, Ring: checkRing,
	},
}

// ValidateCombo rejects incompatible mode/template/count combinations.
// It runs before any artifact is written.
func ValidateCombo(mode DiscoveryMode, tmpl Template, daemons int) error {
	byTemplate, ok := comboChecks[mode]
	if !ok {
		return fmt.Errorf("unknown discovery mode %d", mode)
	}
	check, ok := byTemplate[tmpl]
	if !ok {
		return fmt.Errorf("unknown topology template %d", tmpl)
	}
	return check(daemons)
}
