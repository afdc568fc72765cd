package interior

import (
	"fmt"
	"strings"

	"github.com/OCAP2/vessels/internal/vessel"
)

// Layout renders the numbered compartment listing shown by "ship rooms".
// here is the viewer's compartment, or vessel.NoRoom. partner names the
// vessel v is docked with, if any.
func Layout(v *vessel.Vessel, here int, partner string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Interior layout of %s:\n", v.Name)
	b.WriteString("==================================\n")

	for i, c := range v.Rooms {
		fmt.Fprintf(&b, "%2d. %s", i+1, c.Name)
		if i == v.Bridge {
			b.WriteString(" [BRIDGE]")
		}
		if i == v.Entrance {
			b.WriteString(" [ENTRANCE]")
		}
		if i == here {
			b.WriteString(" [YOU ARE HERE]")
		}
		b.WriteString("\n")
	}

	if v.IsDocked() && partner != "" {
		fmt.Fprintf(&b, "\nDocked with: %s\n", partner)
	}
	return b.String()
}
