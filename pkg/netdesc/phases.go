package netdesc

import (
	"fmt"
	"time"
)

// MinPhaseGap is the smallest allowed interval between one phase's stop
// and the next phase's start. Restarting a daemon against the same data
// directory needs the old process fully flushed and gone first.
const MinPhaseGap = 30 * time.Second

// PhaseList is the ordered upgrade schedule of one agent. The sequencing
// invariants live here so every consumer sees them enforced the same way.
type PhaseList []Phase

// Validate checks the structural invariants of the phase list:
// contiguous numbering from 0, a stop on every non-final phase, start
// before stop within a phase, and at least MinPhaseGap between a stop and
// the following start. Violations name the offending phase.
func (p PhaseList) Validate() error {
	for i, ph := range p {
		if ph.Index != i {
			return fmt.Errorf("phase %d: expected sequential number %d (phases must be contiguous from 0)", ph.Index, i)
		}
		final := i == len(p)-1
		if ph.Stop == nil && !final {
			return fmt.Errorf("phase %d: missing stop time (only the final phase may run open-ended)", ph.Index)
		}
		if ph.Stop != nil && ph.Stop.Std() <= ph.Start.Std() {
			return fmt.Errorf("phase %d: stop %s is not after start %s", ph.Index, ph.Stop.Std(), ph.Start.Std())
		}
		if i > 0 {
			prev := p[i-1]
			gap := ph.Start.Std() - prev.Stop.Std()
			if gap < MinPhaseGap {
				return fmt.Errorf("phase %d: starts %s after phase %d stops, need at least %s",
					ph.Index, gap, prev.Index, MinPhaseGap)
			}
		}
	}
	return nil
}
