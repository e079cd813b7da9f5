package export

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/robert-at-pretension-io/regsheet/internal/regmap"
)

const (
	ipxactNS = "http://www.accellera.org/XMLSchema/IPXACT/1685-2022"
	xsiNS    = "http://www.w3.org/2001/XMLSchema-instance"

	// Every address block is a 32-bit register block of byte addresses.
	blockWidth      = 32
	blockUsage      = "register"
	addressUnitBits = 8
)

// accessPolicies maps sheet access tokens to IP-XACT access values.
// Unknown tokens are written unchanged.
var accessPolicies = map[string]string{
	"RW":  "read-write",
	"RO":  "read-only",
	"WO":  "write-only",
	"W1":  "writeOnce",
	"RW1": "read-writeOnce",
}

// AccessPolicy returns the IP-XACT access value for a sheet access token.
func AccessPolicy(access string) string {
	if p, ok := accessPolicies[access]; ok {
		return p
	}
	return access
}

type ipxComponent struct {
	XMLName    xml.Name      `xml:"ipxact:component"`
	NSIpxact   string        `xml:"xmlns:ipxact,attr"`
	NSXsi      string        `xml:"xmlns:xsi,attr"`
	Vendor     string        `xml:"ipxact:vendor"`
	Library    string        `xml:"ipxact:library"`
	Name       string        `xml:"ipxact:name"`
	Version    string        `xml:"ipxact:version"`
	MemoryMaps ipxMemoryMaps `xml:"ipxact:memoryMaps"`
}

type ipxMemoryMaps struct {
	MemoryMap []ipxMemoryMap `xml:"ipxact:memoryMap"`
}

type ipxMemoryMap struct {
	Name            string            `xml:"ipxact:name"`
	AddressBlocks   []ipxAddressBlock `xml:"ipxact:addressBlock"`
	AddressUnitBits int               `xml:"ipxact:addressUnitBits"`
}

type ipxAddressBlock struct {
	Name        string        `xml:"ipxact:name"`
	BaseAddress string        `xml:"ipxact:baseAddress"`
	Range       string        `xml:"ipxact:range"`
	Width       int           `xml:"ipxact:width"`
	Usage       string        `xml:"ipxact:usage"`
	Registers   []ipxRegister `xml:"ipxact:register,omitempty"`
}

type ipxRegister struct {
	Name          string     `xml:"ipxact:name"`
	AddressOffset string     `xml:"ipxact:addressOffset"`
	Size          uint64     `xml:"ipxact:size"`
	Fields        []ipxField `xml:"ipxact:field,omitempty"`
}

type ipxField struct {
	Name           string             `xml:"ipxact:name"`
	Description    string             `xml:"ipxact:description,omitempty"`
	BitOffset      uint64             `xml:"ipxact:bitOffset"`
	BitWidth       uint64             `xml:"ipxact:bitWidth"`
	AccessPolicies *ipxAccessPolicies `xml:"ipxact:fieldAccessPolicies,omitempty"`
	Resets         ipxResets          `xml:"ipxact:resets"`
}

type ipxAccessPolicies struct {
	Policy ipxAccessPolicy `xml:"ipxact:fieldAccessPolicy"`
}

type ipxAccessPolicy struct {
	Access string `xml:"ipxact:access"`
}

type ipxResets struct {
	Reset []ipxReset `xml:"ipxact:reset"`
}

type ipxReset struct {
	Value string `xml:"ipxact:value"`
}

func hex(v uint64) string {
	return fmt.Sprintf("0x%X", v)
}

// toIPXACT builds the component document. The memory map is named after
// the component.
func toIPXACT(m *regmap.Model) ipxComponent {
	mm := ipxMemoryMap{
		Name:            m.Version.Name,
		AddressUnitBits: addressUnitBits,
	}
	for _, b := range m.AddressBlocks {
		blk := ipxAddressBlock{
			Name:        b.Name,
			BaseAddress: hex(b.BaseAddress),
			Range:       hex(b.Range),
			Width:       blockWidth,
			Usage:       blockUsage,
		}
		for _, r := range b.Registers {
			reg := ipxRegister{
				Name:          r.Name,
				AddressOffset: hex(r.AddressOffset),
				Size:          r.Size,
			}
			for _, f := range r.Fields {
				fld := ipxField{
					Name:        f.Name,
					Description: f.Description,
					BitOffset:   f.BitOffset,
					BitWidth:    f.BitWidth,
					Resets:      ipxResets{Reset: []ipxReset{{Value: hex(f.ResetValue)}}},
				}
				if f.Access != "" {
					fld.AccessPolicies = &ipxAccessPolicies{Policy: ipxAccessPolicy{Access: AccessPolicy(f.Access)}}
				}
				reg.Fields = append(reg.Fields, fld)
			}
			blk.Registers = append(blk.Registers, reg)
		}
		mm.AddressBlocks = append(mm.AddressBlocks, blk)
	}

	return ipxComponent{
		NSIpxact:   ipxactNS,
		NSXsi:      xsiNS,
		Vendor:     m.Version.Vendor,
		Library:    m.Version.Library,
		Name:       m.Version.Name,
		Version:    m.Version.Version,
		MemoryMaps: ipxMemoryMaps{MemoryMap: []ipxMemoryMap{mm}},
	}
}

// WriteIPXACT writes m as an IP-XACT 1685-2022 component with one memory map.
func WriteIPXACT(w io.Writer, m *regmap.Model, indent string) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("writing xml header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", indent)
	if err := enc.Encode(toIPXACT(m)); err != nil {
		return fmt.Errorf("encoding ip-xact: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding ip-xact: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
