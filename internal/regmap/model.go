package regmap

// RegisterSize is the fixed width of every register, in bits.
const RegisterSize = 32

// Model is the complete register map of one component.
type Model struct {
	Version       VersionInfo    `json:"version" yaml:"version"`
	AddressBlocks []AddressBlock `json:"addressBlocks" yaml:"addressBlocks"`
}

// VersionInfo identifies the component (VLNV).
type VersionInfo struct {
	Vendor  string `json:"vendor" yaml:"vendor"`
	Library string `json:"library" yaml:"library"`
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

// AddressBlock is a named, based region of address space. Name doubles as
// the name of the sheet listing its registers.
type AddressBlock struct {
	Name        string     `json:"name" yaml:"name"`
	BaseAddress uint64     `json:"baseAddress" yaml:"baseAddress"`
	Range       uint64     `json:"range" yaml:"range"`
	Registers   []Register `json:"registers" yaml:"registers"`
}

// Register is one addressable register. Names are unique within a block.
type Register struct {
	Name          string  `json:"name" yaml:"name"`
	AddressOffset uint64  `json:"addressOffset" yaml:"addressOffset"`
	Size          uint64  `json:"size" yaml:"size"`
	Fields        []Field `json:"fields" yaml:"fields"`
}

// Field is a bit field of a register.
type Field struct {
	Name        string `json:"name" yaml:"name"`
	BitOffset   uint64 `json:"bitOffset" yaml:"bitOffset"`
	BitWidth    uint64 `json:"bitWidth" yaml:"bitWidth"`
	Access      string `json:"access" yaml:"access"`
	ResetValue  uint64 `json:"resetValue" yaml:"resetValue"`
	Description string `json:"description" yaml:"description"`
}

// NewModel returns a model with non-nil slices.
func NewModel(version VersionInfo) *Model {
	return &Model{Version: version, AddressBlocks: []AddressBlock{}}
}

// RegisterCount returns the number of registers across all blocks.
func (m *Model) RegisterCount() int {
	n := 0
	for _, b := range m.AddressBlocks {
		n += len(b.Registers)
	}
	return n
}
