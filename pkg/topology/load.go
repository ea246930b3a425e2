package topology

import (
	"fmt"
	"os"
	"strings"

	"github.com/golang/snappy"

	"github.com/blocknetlab/shadowforge/pkg/logging"
)

// Load reads and parses a graph file. A path ending in ".snappy" is
// decompressed first; large AS-level graphs ship compressed. An empty
// path yields the flat fallback topology. Multi-component graphs load
// with a warning, never an error.
func Load(path string, logger logging.Logger) (*Graph, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if path == "" {
		logger.Debug("no graph file given, using flat topology", logging.Stage("topology"))
		return NewFlat(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph file: %w", err)
	}
	if strings.HasSuffix(path, ".snappy") {
		data, err = snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("decompress graph file %s: %w", path, err)
		}
	}

	g, err := Parse(string(data))
	if err != nil {
		return nil, err
	}

	logger.Info("topology graph loaded",
		logging.Stage("topology"),
		logging.Path(path),
		logging.Int("nodes", len(g.Nodes)),
		logging.Int("edges", len(g.Edges)),
	)
	if g.Components > 1 {
		logger.Warn("topology graph is not a single connected component",
			logging.Stage("topology"),
			logging.Int("components", g.Components),
		)
	}
	return g, nil
}
