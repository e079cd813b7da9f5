package tables

// FilterTablesByFiles returns a new Tables containing only rows whose
// workbook file is present in files.
func FilterTablesByFiles(tables Tables, files map[string]bool) Tables {
	return filter(tables, func(file, _ string) bool { return files[file] })
}

// FilterTablesByBlocks returns a new Tables containing only the rows of the
// named address blocks. Component rows are kept for files that still have
// at least one block.
func FilterTablesByBlocks(tables Tables, blocks map[string]bool) Tables {
	out := filter(tables, func(_, block string) bool { return blocks[block] })

	kept := make(map[string]bool, len(out.Blocks))
	for _, b := range out.Blocks {
		kept[b.File] = true
	}
	out.Components = []ComponentRow{}
	for _, c := range tables.Components {
		if kept[c.File] {
			out.Components = append(out.Components, c)
		}
	}
	return out
}

// FilterDeltaByFiles returns a new Delta containing only rows for the given files.
func FilterDeltaByFiles(delta Delta, files map[string]bool) Delta {
	return Delta{
		Added:   FilterTablesByFiles(delta.Added, files),
		Removed: FilterTablesByFiles(delta.Removed, files),
	}
}

func filter(tables Tables, keep func(file, block string) bool) Tables {
	out := emptyTables()

	for _, row := range tables.Components {
		if keep(row.File, "") {
			out.Components = append(out.Components, row)
		}
	}
	for _, row := range tables.Blocks {
		if keep(row.File, row.Name) {
			out.Blocks = append(out.Blocks, row)
		}
	}
	for _, row := range tables.Registers {
		if keep(row.File, row.Block) {
			out.Registers = append(out.Registers, row)
		}
	}
	for _, row := range tables.Fields {
		if keep(row.File, row.Block) {
			out.Fields = append(out.Fields, row)
		}
	}

	return out
}
