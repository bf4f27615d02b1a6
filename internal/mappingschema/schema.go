// Package mappingschema loads the declarative field-mapping document that
// drives the schema-based half of the transformation. The document carries
// two top-level mappings: classes (target class → ordered slot names) and
// slots (slot → range, mappings, required flag). It is loaded once per run
// and immutable thereafter.
package mappingschema

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"dwcarchive/internal/diag"
)

const stage = "schema"

// Range is the declared primitive type of a slot.
type Range string

const (
	RangeInteger Range = "integer"
	RangeFloat   Range = "float"
	RangeDouble  Range = "double"
	RangeString  Range = "string"
	RangeOther   Range = "other"
)

// SourceRef is a parsed "table:column" exact-mapping reference.
type SourceRef struct {
	Table  string
	Column string
}

func (r SourceRef) String() string { return r.Table + ":" + r.Column }

// Slot is a target field definition.
type Slot struct {
	Name            string
	Range           Range
	Required        bool
	ExactMappings   []SourceRef
	RelatedMappings []string
	CloseMappings   []string
	Description     string
	Comments        []string
	Unit            string
	Annotations     map[string]string
}

// Class is a target record class with an ordered slot list.
type Class struct {
	Name        string
	Description string
	Slots       []string
}

// EnumValue is a single permissible value of an enumeration.
type EnumValue struct {
	Name        string
	Description string
}

// Enum is a named enumeration, used by the docs generator.
type Enum struct {
	Name        string
	Description string
	Values      []EnumValue
}

// Schema is the loaded, immutable mapping document.
type Schema struct {
	ID          string
	Name        string
	Title       string
	Description string

	classOrder []string
	classes    map[string]Class
	slots      map[string]Slot
	enumOrder  []string
	enums      map[string]Enum
}

// Class looks up a class definition by name.
func (s *Schema) Class(name string) (Class, bool) {
	c, ok := s.classes[name]
	return c, ok
}

// Slot looks up a slot definition by name.
func (s *Schema) Slot(name string) (Slot, bool) {
	sl, ok := s.slots[name]
	return sl, ok
}

// Classes returns class definitions in document order.
func (s *Schema) Classes() []Class {
	out := make([]Class, 0, len(s.classOrder))
	for _, name := range s.classOrder {
		out = append(out, s.classes[name])
	}
	return out
}

// Enums returns enumerations in document order.
func (s *Schema) Enums() []Enum {
	out := make([]Enum, 0, len(s.enumOrder))
	for _, name := range s.enumOrder {
		out = append(out, s.enums[name])
	}
	return out
}

type slotDoc struct {
	Range           string   `yaml:"range"`
	Required        bool     `yaml:"required"`
	Description     string   `yaml:"description"`
	Comments        []string `yaml:"comments"`
	ExactMappings   []string `yaml:"exact_mappings"`
	RelatedMappings []string `yaml:"related_mappings"`
	CloseMappings   []string `yaml:"close_mappings"`
	Unit            struct {
		UcumCode string `yaml:"ucum_code"`
	} `yaml:"unit"`
	Annotations map[string]string `yaml:"annotations"`
}

type classDoc struct {
	Description string   `yaml:"description"`
	Slots       []string `yaml:"slots"`
}

type enumDoc struct {
	Description       string    `yaml:"description"`
	PermissibleValues yaml.Node `yaml:"permissible_values"`
}

type document struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Classes     yaml.Node `yaml:"classes"`
	Slots       yaml.Node `yaml:"slots"`
	Enums       yaml.Node `yaml:"enums"`
}

// Load reads and parses a mapping schema file. Parse failures are fatal;
// recoverable irregularities (unknown ranges, malformed references) are
// returned as diagnostics with the offending element downgraded or dropped.
func Load(path string) (*Schema, []diag.Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read mapping schema: %w", err)
	}
	return Parse(data)
}

// Parse parses a mapping schema document from bytes.
func Parse(data []byte) (*Schema, []diag.Diagnostic, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse mapping schema: %w", err)
	}

	var dc diag.Collector
	s := &Schema{
		ID:          doc.ID,
		Name:        doc.Name,
		Title:       doc.Title,
		Description: doc.Description,
		classes:     make(map[string]Class),
		slots:       make(map[string]Slot),
		enums:       make(map[string]Enum),
	}

	if err := eachMapping(&doc.Classes, func(name string, node *yaml.Node) error {
		var cd classDoc
		if err := node.Decode(&cd); err != nil {
			return fmt.Errorf("class %s: %w", name, err)
		}
		s.classOrder = append(s.classOrder, name)
		s.classes[name] = Class{Name: name, Description: cd.Description, Slots: cd.Slots}
		return nil
	}); err != nil {
		return nil, nil, err
	}

	if err := eachMapping(&doc.Slots, func(name string, node *yaml.Node) error {
		var sd slotDoc
		if err := node.Decode(&sd); err != nil {
			return fmt.Errorf("slot %s: %w", name, err)
		}
		s.slots[name] = buildSlot(name, sd, &dc)
		return nil
	}); err != nil {
		return nil, nil, err
	}

	if err := eachMapping(&doc.Enums, func(name string, node *yaml.Node) error {
		var ed enumDoc
		if err := node.Decode(&ed); err != nil {
			return fmt.Errorf("enum %s: %w", name, err)
		}
		e := Enum{Name: name, Description: ed.Description}
		if err := eachMapping(&ed.PermissibleValues, func(value string, vnode *yaml.Node) error {
			var vd struct {
				Description string `yaml:"description"`
			}
			if vnode.Kind == yaml.MappingNode {
				if err := vnode.Decode(&vd); err != nil {
					return fmt.Errorf("enum %s value %s: %w", name, value, err)
				}
			}
			e.Values = append(e.Values, EnumValue{Name: value, Description: vd.Description})
			return nil
		}); err != nil {
			return err
		}
		s.enumOrder = append(s.enumOrder, name)
		s.enums[name] = e
		return nil
	}); err != nil {
		return nil, nil, err
	}

	// Every slot a class names must exist: resolution logic depends on it.
	for _, name := range s.classOrder {
		for _, slot := range s.classes[name].Slots {
			if _, ok := s.slots[slot]; !ok {
				return nil, nil, fmt.Errorf("class %s references undefined slot %q", name, slot)
			}
		}
	}

	return s, dc.Entries(), nil
}

func buildSlot(name string, sd slotDoc, dc *diag.Collector) Slot {
	slot := Slot{
		Name:            name,
		Required:        sd.Required,
		Description:     sd.Description,
		Comments:        sd.Comments,
		RelatedMappings: sd.RelatedMappings,
		CloseMappings:   sd.CloseMappings,
		Unit:            sd.Unit.UcumCode,
		Annotations:     sd.Annotations,
	}
	switch Range(sd.Range) {
	case RangeInteger, RangeFloat, RangeDouble, RangeString, RangeOther:
		slot.Range = Range(sd.Range)
	case "":
		slot.Range = RangeString
	default:
		dc.Warnf(stage, "slot %s: unknown range %q, treating as other", name, sd.Range)
		slot.Range = RangeOther
	}
	for _, ref := range sd.ExactMappings {
		parts := strings.SplitN(ref, ":", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
			dc.Warnf(stage, "slot %s: malformed exact mapping %q, expected table:column", name, ref)
			continue
		}
		slot.ExactMappings = append(slot.ExactMappings, SourceRef{Table: strings.TrimSpace(parts[0]), Column: strings.TrimSpace(parts[1])})
	}
	return slot
}

// eachMapping walks a YAML mapping node in document order. Null or absent
// nodes are treated as empty mappings.
func eachMapping(node *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if node == nil || node.Kind == 0 || node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping node, got %v", node.Kind)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := fn(node.Content[i].Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}
