package vcgen

import (
	"fmt"
	"strings"
)

// Pretty renders vcs as a backend-agnostic textual form an external
// proof assistant (or a human reviewing Warn-mode output) can read: one
// block per VC, implication-shaped when assumptions are present.
func Pretty(vcs []VC) string {
	var b strings.Builder
	for i, vc := range vcs {
		fmt.Fprintf(&b, "VC#%d [%s] (%s)\n", i, vc.Category, vc.Status)
		if len(vc.Assumptions) > 0 {
			fmt.Fprintf(&b, "  assuming: %s\n", strings.Join(vc.Assumptions, " ∧ "))
			fmt.Fprintf(&b, "  implies:  %s\n", vc.Property)
		} else {
			fmt.Fprintf(&b, "  property: %s\n", vc.Property)
		}
		if vc.Description != "" {
			fmt.Fprintf(&b, "  # %s\n", vc.Description)
		}
		if vc.Location.Line != 0 {
			fmt.Fprintf(&b, "  at line %d\n", vc.Location.Line)
		}
	}
	return b.String()
}
