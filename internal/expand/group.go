// Package expand groups block rows by register and instantiates register
// arrays declared with the "{n}, n=range(...)" naming convention.
package expand

import "github.com/robert-at-pretension-io/regsheet/internal/regmap"

// Group is a maximal run of consecutive rows sharing one register name.
type Group struct {
	Name string
	Rows []regmap.RawRow
}

// GroupContiguous splits rows into runs of identical register names. The
// same name appearing again after a different one starts a new group.
func GroupContiguous(rows []regmap.RawRow) []Group {
	var groups []Group
	for _, r := range rows {
		name := r.RegName.String()
		if n := len(groups); n > 0 && groups[n-1].Name == name {
			groups[n-1].Rows = append(groups[n-1].Rows, r)
			continue
		}
		groups = append(groups, Group{Name: name, Rows: []regmap.RawRow{r}})
	}
	return groups
}
