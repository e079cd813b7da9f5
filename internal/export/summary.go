package export

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/robert-at-pretension-io/regsheet/internal/regmap"
)

// WriteSummary prints a human-readable listing of m with hex addresses.
func WriteSummary(w io.Writer, m *regmap.Model) error {
	v := m.Version
	fmt.Fprintf(w, "Component: %s:%s:%s:%s\n", v.Vendor, v.Library, v.Name, v.Version)
	fmt.Fprintf(w, "Address blocks: %d, registers: %d\n", len(m.AddressBlocks), m.RegisterCount())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, b := range m.AddressBlocks {
		fmt.Fprintf(tw, "\n%s\t0x%X\trange 0x%X\t\n", b.Name, b.BaseAddress, b.Range)
		for _, r := range b.Registers {
			fmt.Fprintf(tw, "  %s\t0x%X\t%d fields\t\n", r.Name, b.BaseAddress+r.AddressOffset, len(r.Fields))
			for _, f := range r.Fields {
				fmt.Fprintf(tw, "    %s\t[%d:%d]\t%s\treset 0x%X\n",
					f.Name, f.BitOffset+f.BitWidth-1, f.BitOffset, f.Access, f.ResetValue)
			}
		}
	}
	return tw.Flush()
}
