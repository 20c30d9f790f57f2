package curriculum

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCurriculum []byte

// Default returns the curriculum embedded in the binary.
func Default() (*Curriculum, error) {
	return Parse(defaultCurriculum)
}

// Load reads and validates the curriculum file at path.
func Load(path string) (*Curriculum, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read curriculum: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes curriculum YAML, rejecting unknown keys, validates it and
// builds the unit index.
func Parse(data []byte) (*Curriculum, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Curriculum
	if err := dec.Decode(&c); err != nil {
		return nil, &SpecificationError{Problems: []string{fmt.Sprintf("decode: %v", err)}}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.buildIndex()
	return &c, nil
}

func (c *Curriculum) buildIndex() {
	c.units = nil
	c.index = make(map[unitKey]int)
	for pi := range c.Products {
		p := &c.Products[pi]
		for si := range p.Sections {
			s := &p.Sections[si]
			for ki := range s.SubSkills {
				k := &s.SubSkills[ki]
				c.index[unitKey{p.Name, s.Name, k.Name}] = len(c.units)
				c.units = append(c.units, UnitSpec{
					Product:  p.Name,
					Section:  s,
					SubSkill: k,
					index:    ki,
				})
			}
		}
	}
}

// Units returns every unit in declaration order.
func (c *Curriculum) Units() []UnitSpec {
	return slices.Clone(c.units)
}

// ProductNames returns product names in declaration order.
func (c *Curriculum) ProductNames() []string {
	names := make([]string, len(c.Products))
	for i, p := range c.Products {
		names[i] = p.Name
	}
	return names
}

// Lookup resolves a unit. A missing entry is a SpecificationError.
func (c *Curriculum) Lookup(product, section, subSkill string) (UnitSpec, error) {
	i, ok := c.index[unitKey{product, section, subSkill}]
	if !ok {
		return UnitSpec{}, &SpecificationError{
			Unit:     product + "/" + section + "/" + subSkill,
			Problems: []string{"no curriculum entry"},
		}
	}
	return c.units[i], nil
}

// Section returns the named section of a product, or nil.
func (c *Curriculum) Section(product, section string) *Section {
	for pi := range c.Products {
		if c.Products[pi].Name != product {
			continue
		}
		for si := range c.Products[pi].Sections {
			if c.Products[pi].Sections[si].Name == section {
				return &c.Products[pi].Sections[si]
			}
		}
	}
	return nil
}
