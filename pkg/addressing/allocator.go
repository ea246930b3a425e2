// Package addressing resolves one IP address per agent through a strict
// priority chain over a shared allocation state:
//
//  1. subnet-group binding: agents sharing a group tag draw sequentially
//     from one reserved /24, minted on first sight
//  2. node pre-allocation: a placed node's own ip attribute, verbatim
//  3. AS-aware assignment: a deterministic per-AS /24, next free host
//  4. geographic round robin over six fixed regional ranges
//  5. fallback private range, only when everything above is
//     inapplicable or exhausted
//
// The first matching rule wins and is never overridden by a later one.
// The state is scoped to a single compile pass and passed by reference;
// it is never a process-wide singleton, so parallel test runs cannot
// interfere with each other.
package addressing

import (
	"fmt"
	"net/netip"

	"github.com/blocknetlab/shadowforge/pkg/logging"
)

// Address space carving. Group, AS and geographic ranges are disjoint so
// a reader can tell from the first octets which rule produced an address.
const (
	// Per-AS /24 blocks are minted from 10.0.0.0 upward, below 10.64.0.0.
	asBlockLimit = 64 * 256

	// Subnet-group /24 blocks live in 10.200.0.0/16.
	groupBlockLimit = 256

	// Hosts per /24, .1 through .254.
	hostsPerBlock = 254
)

// geoRegions are the six fixed geographic ranges cycled by rule 4, each
// a /16 with its own host counter.
var geoRegions = [6]struct {
	Name string
	Base netip.Addr
}{
	{"north-america", netip.AddrFrom4([4]byte{10, 64, 0, 0})},
	{"europe", netip.AddrFrom4([4]byte{10, 80, 0, 0})},
	{"asia", netip.AddrFrom4([4]byte{10, 96, 0, 0})},
	{"south-america", netip.AddrFrom4([4]byte{10, 112, 0, 0})},
	{"africa", netip.AddrFrom4([4]byte{10, 128, 0, 0})},
	{"oceania", netip.AddrFrom4([4]byte{10, 144, 0, 0})},
}

// fallbackBase anchors rule 5 in 192.168.0.0/16.
var fallbackBase = netip.AddrFrom4([4]byte{192, 168, 0, 0})

const geoRegionHosts = 65534 // hosts per regional /16

// Request carries the per-agent inputs the chain inspects.
type Request struct {
	AgentID     string
	SubnetGroup string
	NodeIP      string // placed node's ip attribute, "" if none
	NodeAS      string // placed node's AS id, "" if none
}

// Result pairs the allocated address with the rule that produced it.
type Result struct {
	Addr   netip.Addr
	Rule   string
	Region string // geographic region name for rule 4, "" otherwise
}

// AllocationState owns every mutable counter of the allocation
// subsystem for one compile pass.
type AllocationState struct {
	asBlocks map[string]netip.Addr // AS id -> /24 base
	asNext   map[string]int        // AS id -> next host octet
	asMinted int

	groupBlocks map[string]netip.Addr
	groupNext   map[string]int
	groupMinted int

	geoCursor int
	geoNext   [6]int

	fallbackNext int

	used   map[netip.Addr]string // address -> owning agent
	logger logging.Logger
}

// NewAllocationState creates a fresh state for one compile pass.
func NewAllocationState(logger logging.Logger) *AllocationState {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AllocationState{
		asBlocks:    make(map[string]netip.Addr),
		asNext:      make(map[string]int),
		groupBlocks: make(map[string]netip.Addr),
		groupNext:   make(map[string]int),
		used:        make(map[netip.Addr]string),
		logger:      logger,
	}
}

// Allocate resolves one address for one agent. It must be called exactly
// once per agent, in declaration order, for the output to be
// reproducible.
func (s *AllocationState) Allocate(req Request) (Result, error) {
	// Rule 1: subnet-group binding.
	if req.SubnetGroup != "" {
		addr, err := s.allocateGroup(req)
		if err != nil {
			return Result{}, err
		}
		return s.claim(req, Result{Addr: addr, Rule: "group"})
	}

	// Rule 2: node pre-allocation. An unparseable attribute falls
	// through with a warning rather than silently shadowing rules 3-5.
	if req.NodeIP != "" {
		addr, err := netip.ParseAddr(req.NodeIP)
		if err == nil {
			return s.claim(req, Result{Addr: addr, Rule: "node"})
		}
		s.logger.Warn("node ip attribute is not a valid address, falling through",
			logging.Stage("addressing"),
			logging.AgentID(req.AgentID),
			logging.String("attr", req.NodeIP),
		)
	}

	// Rule 3: AS-aware assignment.
	if req.NodeAS != "" {
		addr, err := s.allocateAS(req)
		if err != nil {
			return Result{}, err
		}
		return s.claim(req, Result{Addr: addr, Rule: "as"})
	}

	// Rule 4: geographic round robin.
	region := s.geoCursor % len(geoRegions)
	s.geoCursor++
	if s.geoNext[region] < geoRegionHosts {
		s.geoNext[region]++
		addr := offsetAddr(geoRegions[region].Base, s.geoNext[region])
		return s.claim(req, Result{Addr: addr, Rule: "geo", Region: geoRegions[region].Name})
	}
	s.logger.Warn("geographic range exhausted, using fallback range",
		logging.Stage("addressing"),
		logging.AgentID(req.AgentID),
		logging.String("region", geoRegions[region].Name),
	)

	// Rule 5: fallback. Exhaustion here is the end of the line; the
	// allocator never wraps back into another range.
	if s.fallbackNext >= geoRegionHosts {
		return Result{}, allocError(req.AgentID, "fallback", "192.168.0.0/16", ErrSubnetExhausted)
	}
	s.fallbackNext++
	addr := offsetAddr(fallbackBase, s.fallbackNext)
	return s.claim(req, Result{Addr: addr, Rule: "fallback"})
}

func (s *AllocationState) allocateGroup(req Request) (netip.Addr, error) {
	base, ok := s.groupBlocks[req.SubnetGroup]
	if !ok {
		if s.groupMinted >= groupBlockLimit {
			return netip.Addr{}, allocError(req.AgentID, "group", req.SubnetGroup, ErrBlockSpaceExhausted)
		}
		base = netip.AddrFrom4([4]byte{10, 200, byte(s.groupMinted), 0})
		s.groupBlocks[req.SubnetGroup] = base
		s.groupMinted++
		s.logger.Debug("minted subnet-group block",
			logging.Stage("addressing"),
			logging.String("group", req.SubnetGroup),
			logging.IP(base.String()),
		)
	}
	next := s.groupNext[req.SubnetGroup] + 1
	if next > hostsPerBlock {
		return netip.Addr{}, allocError(req.AgentID, "group", req.SubnetGroup, ErrSubnetExhausted)
	}
	s.groupNext[req.SubnetGroup] = next
	return offsetAddr(base, next), nil
}

func (s *AllocationState) allocateAS(req Request) (netip.Addr, error) {
	base, ok := s.asBlocks[req.NodeAS]
	if !ok {
		if s.asMinted >= asBlockLimit {
			return netip.Addr{}, allocError(req.AgentID, "as", req.NodeAS, ErrBlockSpaceExhausted)
		}
		base = netip.AddrFrom4([4]byte{10, byte(s.asMinted / 256), byte(s.asMinted % 256), 0})
		s.asBlocks[req.NodeAS] = base
		s.asMinted++
		s.logger.Debug("minted AS block",
			logging.Stage("addressing"),
			logging.String("as", req.NodeAS),
			logging.IP(base.String()),
		)
	}
	next := s.asNext[req.NodeAS] + 1
	if next > hostsPerBlock {
		return netip.Addr{}, allocError(req.AgentID, "as", req.NodeAS, ErrSubnetExhausted)
	}
	s.asNext[req.NodeAS] = next
	return offsetAddr(base, next), nil
}

// MintedBlocks reports how many /24 blocks the AS and subnet-group rules
// have minted so far.
func (s *AllocationState) MintedBlocks() (as, group int) {
	return s.asMinted, s.groupMinted
}

// claim records the address and rejects duplicates.
func (s *AllocationState) claim(req Request, res Result) (Result, error) {
	if owner, dup := s.used[res.Addr]; dup {
		return Result{}, allocError(req.AgentID, res.Rule, fmt.Sprintf("%s already held by agent %s", res.Addr, owner), ErrDuplicateIP)
	}
	s.used[res.Addr] = req.AgentID
	return res, nil
}

// offsetAddr adds n to the base address.
func offsetAddr(base netip.Addr, n int) netip.Addr {
	b := base.As4()
	v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	v += uint32(n)
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}
