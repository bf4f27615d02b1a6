// Command schema-docs renders a mapping schema as markdown documentation.
package main

import (
	"flag"
	"fmt"
	"os"

	"dwcarchive/internal/mappingschema"
	"dwcarchive/internal/schemadocs"
)

func main() {
	schemaPath := flag.String("schema", "", "mapping schema path (required)")
	flavor := flag.String("flavor", "source", "document flavor: source, mappings or eml")
	outPath := flag.String("out", "", "output file (defaults to stdout)")
	flag.Parse()

	if err := run(*schemaPath, *flavor, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "schema-docs: %v\n", err)
		os.Exit(1)
	}
}

func run(schemaPath, flavor, outPath string) error {
	if schemaPath == "" {
		return fmt.Errorf("-schema is required")
	}
	schema, diags, err := mappingschema.Load(schemaPath)
	if err != nil {
		return fmt.Errorf("load mapping schema: %w", err)
	}
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "diagnostic: %s\n", d)
	}

	doc, err := schemadocs.Render(schema, schemadocs.Flavor(flavor))
	if err != nil {
		return err
	}
	if outPath == "" {
		_, err := os.Stdout.WriteString(doc)
		return err
	}
	return os.WriteFile(outPath, []byte(doc), 0o644)
}
