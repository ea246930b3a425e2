package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRoster() []RosterEntry {
	return []RosterEntry{
		{
			ID: "miner-000", IP: "10.64.0.1",
			Daemon: true, Wallet: true, Miner: true,
			P2PPort: 28080, RPCPort: 28081, WalletPort: 28090,
			Attributes: map[string]string{"needs_funds": "true"},
		},
		{ID: "relay-000", IP: "10.80.0.1", Daemon: true, P2PPort: 28081, RPCPort: 28082},
	}
}

func TestWriteAllAndReadBack(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)

	weights := []MinerWeight{{ID: "miner-000", IP: "10.64.0.1", Wallet: WalletPlaceholder, Weight: 10}}
	externals := []ExternalNode{{ID: "relay-000", IP: "10.80.0.1", RPCPort: 28082}}

	manifest, err := w.WriteAll("run-1", sampleRoster(), weights, externals)
	require.NoError(t, err)
	require.Len(t, manifest.Artifacts, 3)

	for _, name := range []string{RosterFile, MinerWeightsFile, ExternalNodesFile, ManifestFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "registry file %s missing", name)
	}

	roster, err := ReadRoster(dir)
	require.NoError(t, err)
	assert.Equal(t, sampleRoster(), roster)

	// No staging residue after a successful pass.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestManifestDigestsMatchContent(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)

	_, err := w.WriteAll("run-1", sampleRoster(), nil, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "run-1", m.RunID)

	byName := map[string]string{}
	for _, a := range m.Artifacts {
		byName[a.Name] = a.Blake2
		assert.Len(t, a.Blake2, 64, "digest of %s is not blake2b-256 hex", a.Name)
	}
	assert.Contains(t, byName, RosterFile)
	assert.Contains(t, byName, MinerWeightsFile)
	assert.Contains(t, byName, ExternalNodesFile)
}

func TestIdenticalInputsProduceIdenticalFiles(t *testing.T) {
	desc := []byte("params:\n  seed: 42\n")
	runID := RunID(desc, 42)

	dirs := []string{t.TempDir(), t.TempDir()}
	for _, dir := range dirs {
		_, err := NewWriter(dir, nil).WriteAll(runID, sampleRoster(), nil, nil)
		require.NoError(t, err)
	}

	for _, name := range []string{RosterFile, MinerWeightsFile, ExternalNodesFile, ManifestFile} {
		a, err := os.ReadFile(filepath.Join(dirs[0], name))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(dirs[1], name))
		require.NoError(t, err)
		assert.Equal(t, a, b, "%s differs between identical passes", name)
	}
}

func TestRunIDDerivation(t *testing.T) {
	desc := []byte("agents:\n- name: miner\n")

	assert.Equal(t, RunID(desc, 1), RunID(desc, 1), "same inputs must give the same id")
	assert.NotEqual(t, RunID(desc, 1), RunID(desc, 2), "seed must change the id")
	assert.NotEqual(t, RunID(desc, 1), RunID([]byte("other"), 1), "description must change the id")
}
