// Package schemadocs renders a mapping schema as human-readable markdown.
// Three flavors exist: source field reference, Darwin Core mapping tables
// and EML metadata mapping tables.
package schemadocs

import (
	"fmt"
	"strings"

	"dwcarchive/internal/mappingschema"
)

// Flavor selects the document layout.
type Flavor string

const (
	FlavorSource   Flavor = "source"
	FlavorMappings Flavor = "mappings"
	FlavorEML      Flavor = "eml"
)

// Render produces the markdown document for the schema in the given flavor.
func Render(schema *mappingschema.Schema, flavor Flavor) (string, error) {
	switch flavor {
	case FlavorSource:
		return renderSource(schema), nil
	case FlavorMappings:
		return renderMappings(schema), nil
	case FlavorEML:
		return renderEML(schema), nil
	default:
		return "", fmt.Errorf("unknown docs flavor %q", flavor)
	}
}

func header(schema *mappingschema.Schema, sb *strings.Builder) {
	title := schema.Title
	if title == "" {
		title = schema.Name
	}
	fmt.Fprintf(sb, "# %s\n\n", title)
	if schema.Description != "" {
		fmt.Fprintf(sb, "%s\n\n", schema.Description)
	}
	if schema.ID != "" {
		fmt.Fprintf(sb, "**Schema**: `%s`\n\n", schema.ID)
	}
	sb.WriteString("---\n\n")
}

func oneLine(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

func renderSource(schema *mappingschema.Schema) string {
	var sb strings.Builder
	header(schema, &sb)
	sb.WriteString("## Data Fields\n\n")

	for _, class := range schema.Classes() {
		if len(class.Slots) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "### %s Fields\n\n", class.Name)
		if class.Description != "" {
			fmt.Fprintf(&sb, "%s\n\n", class.Description)
		}
		sb.WriteString("| Field | Type | Units | Description | Source Column |\n")
		sb.WriteString("|-------|------|-------|-------------|---------------|\n")
		for _, name := range class.Slots {
			slot, ok := schema.Slot(name)
			if !ok {
				continue
			}
			units := "-"
			if slot.Unit != "" {
				units = slot.Unit
			}
			source := name
			if v, ok := slot.Annotations["erddap_source"]; ok {
				source = v
			}
			fmt.Fprintf(&sb, "| **%s** | %s | %s | %s | `%s` |\n",
				name, slot.Range, units, oneLine(slot.Description), source)
		}
		sb.WriteString("\n")
	}

	if enums := schema.Enums(); len(enums) > 0 {
		sb.WriteString("---\n\n## Enumerations\n\n")
		for _, enum := range enums {
			fmt.Fprintf(&sb, "### %s\n\n", enum.Name)
			if enum.Description != "" {
				fmt.Fprintf(&sb, "%s\n\n", enum.Description)
			}
			sb.WriteString("| Value | Description |\n")
			sb.WriteString("|-------|-------------|\n")
			for _, v := range enum.Values {
				fmt.Fprintf(&sb, "| **%s** | %s |\n", v.Name, oneLine(v.Description))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func renderMappings(schema *mappingschema.Schema) string {
	var sb strings.Builder
	header(schema, &sb)
	sb.WriteString("**Mapping types**:\n\n")
	sb.WriteString("- **exact_mappings**: 1:1 field renames (auto-transformed)\n")
	sb.WriteString("- **related_mappings**: transformations requiring custom logic\n")
	sb.WriteString("- **close_mappings**: conceptually similar fields\n\n---\n\n")

	for _, class := range schema.Classes() {
		if len(class.Slots) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "## %s Mappings\n\n", class.Name)
		if class.Description != "" {
			fmt.Fprintf(&sb, "%s\n\n", class.Description)
		}

		var auto, custom []mappingschema.Slot
		for _, name := range class.Slots {
			slot, ok := schema.Slot(name)
			if !ok {
				continue
			}
			switch {
			case len(slot.ExactMappings) == 1:
				auto = append(auto, slot)
			case len(slot.ExactMappings) > 1 || len(slot.RelatedMappings) > 0:
				custom = append(custom, slot)
			}
		}

		if len(auto) > 0 {
			sb.WriteString("### Auto-Mapped Fields (1:1)\n\n")
			sb.WriteString("| Target Term | Source Field | Transformation |\n")
			sb.WriteString("|-------------|--------------|----------------|\n")
			for _, slot := range auto {
				fmt.Fprintf(&sb, "| **%s** | `%s` | Direct copy |\n", slot.Name, slot.ExactMappings[0].Column)
			}
			sb.WriteString("\n")
		}
		if len(custom) > 0 {
			sb.WriteString("### Custom-Mapped Fields\n\n")
			sb.WriteString("| Target Term | Source Fields | Transformation |\n")
			sb.WriteString("|-------------|---------------|----------------|\n")
			for _, slot := range custom {
				var sources []string
				for _, m := range slot.ExactMappings {
					sources = append(sources, "`"+m.Column+"`")
				}
				for _, m := range append(slot.RelatedMappings, slot.CloseMappings...) {
					sources = append(sources, "`"+fieldName(m)+"`")
				}
				note := oneLine(slot.Description)
				if len(slot.Comments) > 0 {
					note = oneLine(slot.Comments[0])
				}
				fmt.Fprintf(&sb, "| **%s** | %s | %s |\n", slot.Name, strings.Join(sources, ", "), note)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("---\n\n")
	}
	return sb.String()
}

func renderEML(schema *mappingschema.Schema) string {
	var sb strings.Builder
	header(schema, &sb)
	sb.WriteString("EML provides standardized dataset-level metadata for the archive.\n\n---\n\n## Metadata Mappings\n\n")

	for _, class := range schema.Classes() {
		if len(class.Slots) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "### %s\n\n", class.Name)
		if class.Description != "" {
			fmt.Fprintf(&sb, "%s\n\n", class.Description)
		}
		sb.WriteString("| EML Element | Source Field | Notes |\n")
		sb.WriteString("|-------------|--------------|-------|\n")
		for _, name := range class.Slots {
			slot, ok := schema.Slot(name)
			if !ok {
				continue
			}
			source := "Generated"
			if len(slot.ExactMappings) > 0 {
				var refs []string
				for _, m := range slot.ExactMappings {
					refs = append(refs, "`"+m.Column+"`")
				}
				source = strings.Join(refs, ", ")
			}
			note := ""
			if len(slot.Comments) > 0 {
				note = oneLine(slot.Comments[0])
			}
			fmt.Fprintf(&sb, "| **%s** | %s | %s |\n", name, source, note)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// fieldName strips a "table:column" prefix when present.
func fieldName(ref string) string {
	if i := strings.LastIndex(ref, ":"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}
