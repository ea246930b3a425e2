package registry

// Registry file names. Running participants read these by name; the
// names and field sets are a stable contract across runs.
const (
	RosterFile        = "roster.json"
	MinerWeightsFile  = "miner_weights.json"
	ExternalNodesFile = "external_nodes.json"
	ManifestFile      = "manifest.json"
)

// RosterEntry is one agent in the shared roster.
type RosterEntry struct {
	ID         string            `json:"id"`
	IP         string            `json:"ip"`
	Daemon     bool              `json:"daemon"`
	Wallet     bool              `json:"wallet"`
	Script     bool              `json:"script"`
	Miner      bool              `json:"miner"`
	P2PPort    int               `json:"p2p_port,omitempty"`
	RPCPort    int               `json:"rpc_port,omitempty"`
	WalletPort int               `json:"wallet_port,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// MinerWeight is one row of the miner weight table. Selection
// probability is weight over the sum of all weights, computed by the
// consumer; weights need not sum to any fixed total. The wallet address
// is a placeholder until the participant registers its real one.
type MinerWeight struct {
	ID     string  `json:"id"`
	IP     string  `json:"ip"`
	Wallet string  `json:"wallet"`
	Weight float64 `json:"weight"`
}

// ExternalNode is one externally reachable daemon, for agents that
// attach to a remote daemon instead of running their own.
type ExternalNode struct {
	ID      string `json:"id"`
	IP      string `json:"ip"`
	RPCPort int    `json:"rpc_port"`
}

// WalletPlaceholder marks a miner wallet not yet registered at run time.
const WalletPlaceholder = "PENDING"

// ArtifactDigest records the content hash of one written artifact.
type ArtifactDigest struct {
	Name   string `json:"name"`
	Blake2 string `json:"blake2b_256"`
}

// Manifest summarizes one compile pass. The run id derives
// deterministically from the description and seed, so identical inputs
// produce a byte-identical manifest.
type Manifest struct {
	RunID     string           `json:"run_id"`
	Artifacts []ArtifactDigest `json:"artifacts"`
}
