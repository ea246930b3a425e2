package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blocknetlab/shadowforge/pkg/logging"
	"github.com/blocknetlab/shadowforge/pkg/registry"
)

// SimConfigFile is the simulator config name under the output directory.
const SimConfigFile = "shadow.yaml"

// WriteArtifacts commits a compiled Result to disk: wrapper scripts,
// the simulator config, and the coordination registries. Registries land
// last but still strictly before any simulated process starts, since
// nothing is running until the simulator is launched on the config.
func (c *Compiler) WriteArtifacts(res *Result) error {
	start := time.Now()
	params := &res.Desc.Params

	if err := os.MkdirAll(params.OutputDir, 0o755); err != nil {
		return stageError(StageEmit, fmt.Errorf("create output directory: %w", err))
	}

	scriptsDir := params.ScriptDir
	if scriptsDir == "" {
		scriptsDir = filepath.Join(params.OutputDir, "scripts")
	}
	if err := os.MkdirAll(scriptsDir, 0o755); err != nil {
		return stageError(StageEmit, fmt.Errorf("create scripts directory: %w", err))
	}
	for _, sched := range res.Schedules {
		for _, s := range sched.Scripts {
			path := filepath.Join(scriptsDir, s.Name)
			if err := os.WriteFile(path, []byte(s.Content), 0o755); err != nil {
				return stageError(StageEmit, fmt.Errorf("write script %s: %w", s.Name, err))
			}
		}
	}

	cfgPath := filepath.Join(params.OutputDir, SimConfigFile)
	tmp := cfgPath + ".tmp"
	if err := os.WriteFile(tmp, res.SimConfig, 0o644); err != nil {
		return stageError(StageEmit, fmt.Errorf("stage simulator config: %w", err))
	}
	if err := os.Rename(tmp, cfgPath); err != nil {
		os.Remove(tmp)
		return stageError(StageEmit, fmt.Errorf("commit simulator config: %w", err))
	}
	c.metrics.ArtifactBytes.WithLabelValues(SimConfigFile).Set(float64(len(res.SimConfig)))

	w := registry.NewWriter(params.CoordDir, c.logger)
	if _, err := w.WriteAll(res.RunID, res.Roster, res.Weights, res.Externals); err != nil {
		c.metrics.RecordStageError(StageRegistry)
		return stageError(StageRegistry, err)
	}
	c.metrics.ObserveStage(StageRegistry, time.Since(start))

	c.logger.Info("artifacts written",
		logging.Path(params.OutputDir),
		logging.Int("scripts", countScripts(res)),
	)
	return nil
}

func countScripts(res *Result) int {
	n := 0
	for _, sched := range res.Schedules {
		n += len(sched.Scripts)
	}
	return n
}
