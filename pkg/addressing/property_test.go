package addressing

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestAllocationInvariants verifies the chain's properties over randomized
// request sequences: every handed-out address is unique, and replaying
// the same sequence against a fresh state reproduces the same addresses.
func TestAllocationInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	// Generate request shapes: 0 = plain, 1 = AS, 2 = subnet group.
	reqGen := gen.SliceOf(gen.IntRange(0, 2))

	buildRequests := func(shapes []int) []Request {
		reqs := make([]Request, len(shapes))
		for i, s := range shapes {
			reqs[i] = Request{AgentID: fmt.Sprintf("agent-%03d", i)}
			switch s {
			case 1:
				reqs[i].NodeAS = fmt.Sprintf("as-%d", i%4)
			case 2:
				reqs[i].SubnetGroup = fmt.Sprintf("grp-%d", i%3)
			}
		}
		return reqs
	}

	properties.Property("no two agents share an address", prop.ForAll(
		func(shapes []int) bool {
			state := NewAllocationState(nil)
			seen := make(map[string]bool)
			for _, req := range buildRequests(shapes) {
				res, err := state.Allocate(req)
				if err != nil {
					return false
				}
				if seen[res.Addr.String()] {
					return false
				}
				seen[res.Addr.String()] = true
			}
			return true
		},
		reqGen,
	))

	properties.Property("identical sequences allocate identically", prop.ForAll(
		func(shapes []int) bool {
			reqs := buildRequests(shapes)
			first := NewAllocationState(nil)
			second := NewAllocationState(nil)
			for _, req := range reqs {
				r1, err1 := first.Allocate(req)
				r2, err2 := second.Allocate(req)
				if (err1 == nil) != (err2 == nil) {
					return false
				}
				if err1 == nil && r1.Addr != r2.Addr {
					return false
				}
			}
			return true
		},
		reqGen,
	))

	properties.Property("grouped agents stay inside one /24", prop.ForAll(
		func(count int) bool {
			state := NewAllocationState(nil)
			var prefix string
			for i := 0; i < count; i++ {
				res, err := state.Allocate(Request{
					AgentID:     fmt.Sprintf("m-%d", i),
					SubnetGroup: "colony",
				})
				if err != nil {
					return false
				}
				b := res.Addr.As4()
				p := fmt.Sprintf("%d.%d.%d", b[0], b[1], b[2])
				if prefix == "" {
					prefix = p
				} else if p != prefix {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 254),
	))

	properties.TestingRun(t)
}
