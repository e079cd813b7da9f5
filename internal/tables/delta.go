package tables

import "strconv"

// Delta captures added and removed rows between two snapshots.
type Delta struct {
	Added   Tables `json:"added"`
	Removed Tables `json:"removed"`
}

// ComputeDelta computes row-level additions and removals between two snapshots.
// A row whose content changed shows up as one removal plus one addition.
func ComputeDelta(prev, next Tables) Delta {
	return Delta{
		Added:   diffTables(prev, next),
		Removed: diffTables(next, prev),
	}
}

// Empty reports whether the delta has no rows.
func (d Delta) Empty() bool {
	return d.Added.Len() == 0 && d.Removed.Len() == 0
}

// Len returns the total number of rows across all relations.
func (t Tables) Len() int {
	return len(t.Components) + len(t.Blocks) + len(t.Registers) + len(t.Fields)
}

func diffTables(from, to Tables) Tables {
	out := emptyTables()

	out.Components = diffRows(from.Components, to.Components, func(r ComponentRow) string {
		return r.File + "|" + r.Vendor + "|" + r.Library + "|" + r.Name + "|" + r.Version
	})
	out.Blocks = diffRows(from.Blocks, to.Blocks, func(r BlockRow) string {
		return r.File + "|" + r.Name + "|" + uintKey(r.BaseAddress) + "|" + uintKey(r.Range)
	})
	out.Registers = diffRows(from.Registers, to.Registers, func(r RegisterRow) string {
		return r.File + "|" + r.Block + "|" + r.Name + "|" + uintKey(r.AddressOffset) + "|" + uintKey(r.Absolute) + "|" + uintKey(r.Size)
	})
	out.Fields = diffRows(from.Fields, to.Fields, func(r FieldRow) string {
		return r.File + "|" + r.Block + "|" + r.Register + "|" + r.Name + "|" +
			uintKey(r.BitOffset) + "|" + uintKey(r.BitWidth) + "|" + r.Access + "|" +
			uintKey(r.ResetValue) + "|" + r.Description
	})

	return out
}

func diffRows[T any](from, to []T, key func(T) string) []T {
	fromSet := make(map[string]struct{}, len(from))
	for _, row := range from {
		fromSet[key(row)] = struct{}{}
	}
	diff := []T{}
	for _, row := range to {
		if _, ok := fromSet[key(row)]; !ok {
			diff = append(diff, row)
		}
	}
	return diff
}

func uintKey(v uint64) string {
	return strconv.FormatUint(v, 10)
}
