package tables

import (
	"github.com/robert-at-pretension-io/regsheet/internal/regmap"
)

// Tables is the relational view of one or more register maps.
// Each slice is a relation (table) with flat rows keyed by workbook file.
type Tables struct {
	Components []ComponentRow `json:"components"`
	Blocks     []BlockRow     `json:"blocks"`
	Registers  []RegisterRow  `json:"registers"`
	Fields     []FieldRow     `json:"fields"`
}

type ComponentRow struct {
	File    string `json:"file"`
	Vendor  string `json:"vendor"`
	Library string `json:"library"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

type BlockRow struct {
	File        string `json:"file"`
	Name        string `json:"name"`
	BaseAddress uint64 `json:"base_address"`
	Range       uint64 `json:"range"`
}

type RegisterRow struct {
	File          string `json:"file"`
	Block         string `json:"block"`
	Name          string `json:"name"`
	AddressOffset uint64 `json:"address_offset"`
	// Absolute is BaseAddress + AddressOffset.
	Absolute uint64 `json:"absolute_address"`
	Size     uint64 `json:"size"`
}

type FieldRow struct {
	File        string `json:"file"`
	Block       string `json:"block"`
	Register    string `json:"register"`
	Name        string `json:"name"`
	BitOffset   uint64 `json:"bit_offset"`
	BitWidth    uint64 `json:"bit_width"`
	Access      string `json:"access"`
	ResetValue  uint64 `json:"reset_value"`
	Description string `json:"description"`
}

// Source pairs a parsed model with the workbook it came from.
type Source struct {
	File  string
	Model *regmap.Model
}

// BuildTables flattens models into relations. Row order follows source
// order, then block, register and field order.
func BuildTables(sources []Source) Tables {
	tables := emptyTables()

	for _, src := range sources {
		if src.Model == nil {
			continue
		}
		v := src.Model.Version
		tables.Components = append(tables.Components, ComponentRow{
			File:    src.File,
			Vendor:  v.Vendor,
			Library: v.Library,
			Name:    v.Name,
			Version: v.Version,
		})

		for _, b := range src.Model.AddressBlocks {
			tables.Blocks = append(tables.Blocks, BlockRow{
				File:        src.File,
				Name:        b.Name,
				BaseAddress: b.BaseAddress,
				Range:       b.Range,
			})

			for _, r := range b.Registers {
				tables.Registers = append(tables.Registers, RegisterRow{
					File:          src.File,
					Block:         b.Name,
					Name:          r.Name,
					AddressOffset: r.AddressOffset,
					Absolute:      b.BaseAddress + r.AddressOffset,
					Size:          r.Size,
				})

				for _, f := range r.Fields {
					tables.Fields = append(tables.Fields, FieldRow{
						File:        src.File,
						Block:       b.Name,
						Register:    r.Name,
						Name:        f.Name,
						BitOffset:   f.BitOffset,
						BitWidth:    f.BitWidth,
						Access:      f.Access,
						ResetValue:  f.ResetValue,
						Description: f.Description,
					})
				}
			}
		}
	}

	return tables
}

func emptyTables() Tables {
	return Tables{
		Components: []ComponentRow{},
		Blocks:     []BlockRow{},
		Registers:  []RegisterRow{},
		Fields:     []FieldRow{},
	}
}
