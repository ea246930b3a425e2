package netdesc

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads, parses, validates and expands a network description file.
func Load(path string) (*Description, []*Agent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read description: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates a network description from raw YAML and
// expands the agent groups into the flat agent list, in declaration order.
func Parse(data []byte) (*Description, []*Agent, error) {
	var desc Description
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, nil, fmt.Errorf("parse description: %w", err)
	}
	desc.Params.ApplyDefaults()

	if err := ValidateDescription(&desc); err != nil {
		return nil, nil, err
	}

	agents, err := Expand(&desc)
	if err != nil {
		return nil, nil, err
	}
	return &desc, agents, nil
}

// Expand mints the flat agent list from the declared groups. A group of
// count 1 keeps its bare name; larger groups get zero-padded suffixes so
// lexical and declaration order agree.
func Expand(desc *Description) ([]*Agent, error) {
	var agents []*Agent
	seen := make(map[string]int)
	for gi, g := range desc.Groups {
		role, err := ParseRole(g.Role)
		if err != nil {
			return nil, fmt.Errorf("agent group %q: %w", g.Name, err)
		}
		if prev, dup := seen[g.Name]; dup {
			return nil, fmt.Errorf("agent group %q (index %d): name already used by group %d", g.Name, gi, prev)
		}
		seen[g.Name] = gi

		count := g.Count
		if count == 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			id := g.Name
			if count > 1 {
				id = fmt.Sprintf("%s-%03d", g.Name, i)
			}
			agents = append(agents, &Agent{
				ID:          id,
				Role:        role,
				Attrs:       g.Attrs.Clone(),
				Weight:      g.Weight,
				SubnetGroup: g.SubnetGroup,
				Phases:      g.Phases,
				NodeID:      -1,
			})
		}
	}
	return agents, nil
}
