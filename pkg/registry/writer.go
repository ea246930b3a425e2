// Package registry serializes the shared coordination state of one
// compiled network: the agent roster, the miner weight table and the
// externally reachable node table. Writes are atomic so a registry is
// either complete or not visible at all; everything lands before any
// simulated process starts, so readers never race the writer.
package registry

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/blocknetlab/shadowforge/pkg/logging"
)

// runIDNamespace anchors the deterministic run id derivation.
var runIDNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// RunID derives the run identifier from the description bytes and seed.
// Same inputs, same id: the manifest stays byte-identical across runs.
func RunID(description []byte, seed int64) string {
	material := append([]byte(fmt.Sprintf("seed:%d:", seed)), description...)
	return uuid.NewSHA1(runIDNamespace, material).String()
}

// Writer writes registries to the coordination directory.
type Writer struct {
	dir    string
	logger logging.Logger
}

// NewWriter creates a writer rooted at the coordination directory.
func NewWriter(dir string, logger logging.Logger) *Writer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Writer{dir: dir, logger: logger}
}

// WriteAll writes the three registries plus the manifest. Each file is
// staged as <name>.tmp and renamed into place.
func (w *Writer) WriteAll(runID string, roster []RosterEntry, weights []MinerWeight, externals []ExternalNode) (*Manifest, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create coordination directory: %w", err)
	}

	manifest := &Manifest{RunID: runID}

	files := []struct {
		name string
		data any
	}{
		{RosterFile, roster},
		{MinerWeightsFile, weights},
		{ExternalNodesFile, externals},
	}
	for _, f := range files {
		digest, err := w.writeJSON(f.name, f.data)
		if err != nil {
			return nil, err
		}
		manifest.Artifacts = append(manifest.Artifacts, ArtifactDigest{Name: f.name, Blake2: digest})
	}

	if _, err := w.writeJSON(ManifestFile, manifest); err != nil {
		return nil, err
	}

	w.logger.Info("coordination registries written",
		logging.Stage("registry"),
		logging.Path(w.dir),
		logging.Int("roster_entries", len(roster)),
		logging.Int("miners", len(weights)),
	)
	return manifest, nil
}

// writeJSON marshals, stages, fsyncs and renames one registry file,
// returning the blake2b-256 digest of its content.
func (w *Writer) writeJSON(name string, data any) (string, error) {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", name, err)
	}
	payload = append(payload, '\n')

	final := filepath.Join(w.dir, name)
	tmp := final + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", name, err)
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("sync %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("commit %s: %w", name, err)
	}

	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// ReadRoster loads a previously written roster, for participants and for
// round-trip verification.
func ReadRoster(dir string) ([]RosterEntry, error) {
	data, err := os.ReadFile(filepath.Join(dir, RosterFile))
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	var roster []RosterEntry
	if err := json.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	return roster, nil
}
