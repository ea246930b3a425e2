package netdesc

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Role describes which processes an agent runs.
type Role int

const (
	// RoleDaemon runs only the chain daemon
	RoleDaemon Role = iota
	// RoleWallet runs a daemon plus a wallet attached to it
	RoleWallet
	// RoleFull runs daemon, wallet and a behavior script
	RoleFull
	// RoleScript runs only a behavior script, attaching to a remote daemon
	RoleScript
)

// String returns the configuration spelling of the role.
func (r Role) String() string {
	switch r {
	case RoleDaemon:
		return "daemon"
	case RoleWallet:
		return "wallet"
	case RoleFull:
		return "full"
	case RoleScript:
		return "script"
	default:
		return "unknown"
	}
}

// ParseRole converts a configuration string to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "daemon":
		return RoleDaemon, nil
	case "wallet":
		return RoleWallet, nil
	case "full":
		return RoleFull, nil
	case "script":
		return RoleScript, nil
	default:
		return 0, fmt.Errorf("unknown role %q (want daemon, wallet, full or script)", s)
	}
}

// HasDaemon reports whether the role includes a chain daemon process.
func (r Role) HasDaemon() bool {
	return r == RoleDaemon || r == RoleWallet || r == RoleFull
}

// HasWallet reports whether the role includes a wallet process.
func (r Role) HasWallet() bool {
	return r == RoleWallet || r == RoleFull
}

// HasScript reports whether the role includes a behavior script process.
func (r Role) HasScript() bool {
	return r == RoleFull || r == RoleScript
}

// Attr is one key-value pair of an agent attribute map.
type Attr struct {
	Key   string
	Value string
}

// Attrs is an attribute map that preserves declaration order. Ordering
// matters for reproducible artifact output, so this is a slice, not a map.
type Attrs []Attr

// UnmarshalYAML reads a YAML mapping in document order.
func (a *Attrs) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("attributes: expected a mapping, got %s", value.Tag)
	}
	out := make(Attrs, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		k := value.Content[i]
		v := value.Content[i+1]
		out = append(out, Attr{Key: k.Value, Value: v.Value})
	}
	*a = out
	return nil
}

// MarshalYAML writes the attributes back as a mapping in stored order.
func (a Attrs) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, kv := range a {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: kv.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: kv.Value},
		)
	}
	return node, nil
}

// Get returns the value for key and whether it was present.
func (a Attrs) Get(key string) (string, bool) {
	for _, kv := range a {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// GetBool coerces the attribute through ParseBoolish; absent keys are false.
func (a Attrs) GetBool(key string) bool {
	v, ok := a.Get(key)
	if !ok {
		return false
	}
	return ParseBoolish(v)
}

// Clone returns an independent copy.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	copy(out, a)
	return out
}

// Duration wraps time.Duration with YAML scalar parsing ("30s", "5m").
type Duration time.Duration

// UnmarshalYAML parses a duration scalar.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration in time.Duration string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Phase is one contiguous window during which an agent runs a specific
// binary version, simulating a mid-run upgrade.
type Phase struct {
	Index  int       `yaml:"phase"`
	Binary string    `yaml:"binary" validate:"required"`
	Args   string    `yaml:"args"`
	Start  Duration  `yaml:"start"`
	Stop   *Duration `yaml:"stop"`
}

// Agent is one simulated network participant. Created at parse time;
// the pipeline attaches the resolved fields and nothing mutates the agent
// after process generation.
type Agent struct {
	ID          string
	Role        Role
	Attrs       Attrs
	Weight      float64
	SubnetGroup string
	Phases      PhaseList

	// Resolved by the pipeline
	IP         string
	P2PPort    int
	RPCPort    int
	WalletPort int
	NodeID     int // topology node, -1 when unplaced
	Region     string
	Peers      []string
}

// IsMiner reports whether the agent participates in block production.
func (a *Agent) IsMiner() bool {
	return a.Weight > 0
}
