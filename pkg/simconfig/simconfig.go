// Package simconfig emits the discrete-event simulator configuration:
// one virtual host per agent, each with its resolved address and ordered
// process list. Field order is struct-driven and map keys marshal
// sorted, so the output is byte-identical for identical inputs.
package simconfig

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/blocknetlab/shadowforge/pkg/netdesc"
	"github.com/blocknetlab/shadowforge/pkg/schedule"
	"github.com/blocknetlab/shadowforge/pkg/topology"
)

// Config is the top-level simulator configuration document.
type Config struct {
	General General         `yaml:"general"`
	Network Network         `yaml:"network"`
	Hosts   map[string]Host `yaml:"hosts"`
}

// General carries the run-wide simulator settings.
type General struct {
	StopTime string `yaml:"stop_time"`
	Seed     int64  `yaml:"seed"`
}

// Network selects the graph the simulator routes over.
type Network struct {
	Graph GraphSpec `yaml:"graph"`
}

// GraphSpec is either the implicit switch or an external graph file.
type GraphSpec struct {
	Type string      `yaml:"type"`
	File *FileSource `yaml:"file,omitempty"`
}

// FileSource points at the graph file the simulator should load.
type FileSource struct {
	Path string `yaml:"path"`
}

// Host is one virtual host.
type Host struct {
	NetworkNodeID int       `yaml:"network_node_id"`
	IPAddr        string    `yaml:"ip_addr"`
	Processes     []Process `yaml:"processes"`
}

// Process is one scheduled process of a host.
type Process struct {
	Path        string            `yaml:"path"`
	Args        string            `yaml:"args,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
	StartTime   string            `yaml:"start_time"`
	StopTime    string            `yaml:"stop_time,omitempty"`
}

// Build assembles the simulator config from the compiled network.
// schedules must align one-to-one with agents.
func Build(params *netdesc.RunParams, agents []*netdesc.Agent, schedules []*schedule.AgentSchedule, graph *topology.Graph) (*Config, error) {
	if len(agents) != len(schedules) {
		return nil, fmt.Errorf("agent/schedule count mismatch: %d vs %d", len(agents), len(schedules))
	}

	cfg := &Config{
		General: General{
			StopTime: formatSeconds(params.Duration),
			Seed:     params.Seed,
		},
		Hosts: make(map[string]Host, len(agents)),
	}

	if graph != nil && !graph.Flat() {
		cfg.Network.Graph = GraphSpec{Type: "gml", File: &FileSource{Path: params.GraphPath}}
	} else {
		cfg.Network.Graph = GraphSpec{Type: "1_gbit_switch"}
	}

	owner := make(map[string]string, len(agents))
	for i, a := range agents {
		name := hostname(a.ID)
		if prev, dup := owner[name]; dup {
			return nil, fmt.Errorf("agents %q and %q both sanitize to host name %q", prev, a.ID, name)
		}
		owner[name] = a.ID

		host := Host{
			NetworkNodeID: maxInt(a.NodeID, 0),
			IPAddr:        a.IP,
		}
		for _, p := range schedules[i].Processes {
			proc := Process{
				Path:      p.Path,
				Args:      strings.Join(p.Args, " "),
				StartTime: fmt.Sprintf("%ds", int(p.StartOffset.Seconds())),
			}
			if p.StopOffset > 0 {
				proc.StopTime = fmt.Sprintf("%ds", int(p.StopOffset.Seconds()))
			}
			if len(p.Env) > 0 {
				proc.Environment = make(map[string]string, len(p.Env))
				for _, kv := range p.Env {
					proc.Environment[kv.Key] = kv.Value
				}
			}
			host.Processes = append(host.Processes, proc)
		}
		cfg.Hosts[name] = host
	}
	return cfg, nil
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// hostname sanitizes an agent id into a simulator host name.
func hostname(id string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '-'
	}, id)
}

func formatSeconds(d netdesc.Duration) string {
	return fmt.Sprintf("%ds", int(d.Std().Seconds()))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
