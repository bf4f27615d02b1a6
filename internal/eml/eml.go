// Package eml renders dataset metadata as an EML 2.1.1 document.
package eml

import (
	"encoding/xml"
	"fmt"
	"strings"
	"text/template"

	"dwcarchive/internal/diag"
)

// Metadata is a free-form key to value bag. Recognized keys:
//
//	package_id, title, creator_organization, creator_email,
//	contact_name, contact_email, publisher, abstract, keywords,
//	license, distribution_url, project_title, funding,
//	contributor_names, contributor_roles, methods
//
// Absent keys render as empty elements. keywords, contributor_names and
// contributor_roles are comma separated lists.
type Metadata map[string]string

func (m Metadata) get(key string) string {
	return m[key]
}

// Contributor is one project personnel entry.
type Contributor struct {
	Name string
	Role string
}

const emlStage = "eml"

// Contributors zips the comma separated contributor_names and
// contributor_roles lists by position. If the lists differ in length the
// result is truncated to the shorter one and a diagnostic is recorded.
func (m Metadata) Contributors() ([]Contributor, []diag.Diagnostic) {
	names := splitList(m.get("contributor_names"))
	roles := splitList(m.get("contributor_roles"))

	var dc diag.Collector
	n := len(names)
	if len(roles) < n {
		n = len(roles)
	}
	if len(names) != len(roles) {
		dc.Warnf(emlStage, "contributor lists differ in length (%d names, %d roles), truncated to %d", len(names), len(roles), n)
	}
	out := make([]Contributor, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Contributor{Name: names[i], Role: roles[i]})
	}
	return out, dc.Entries()
}

// Keywords returns the comma separated keywords list, trimmed, empties
// dropped.
func (m Metadata) Keywords() []string {
	return splitList(m.get("keywords"))
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

type templateData struct {
	Meta         Metadata
	Keywords     []string
	Contributors []Contributor
}

var docTemplate = template.Must(template.New("eml").Funcs(template.FuncMap{
	"esc": escape,
}).Parse(`<?xml version="1.0" encoding="UTF-8"?>
<eml:eml xmlns:eml="eml://ecoinformatics.org/eml-2.1.1"
         xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
         xsi:schemaLocation="eml://ecoinformatics.org/eml-2.1.1 http://rs.gbif.org/schema/eml-gbif-profile/1.1/eml.xsd"
         packageId="{{esc (index .Meta "package_id")}}" system="http://gbif.org" scope="system" xml:lang="en">
  <dataset>
    <title>{{esc (index .Meta "title")}}</title>
    <creator>
      <organizationName>{{esc (index .Meta "creator_organization")}}</organizationName>
      <electronicMailAddress>{{esc (index .Meta "creator_email")}}</electronicMailAddress>
    </creator>
    <contact>
      <individualName>
        <surName>{{esc (index .Meta "contact_name")}}</surName>
      </individualName>
      <electronicMailAddress>{{esc (index .Meta "contact_email")}}</electronicMailAddress>
    </contact>
    <publisher>
      <organizationName>{{esc (index .Meta "publisher")}}</organizationName>
    </publisher>
    <abstract>
      <para>{{esc (index .Meta "abstract")}}</para>
    </abstract>
    <keywordSet>
{{- range .Keywords}}
      <keyword>{{esc .}}</keyword>
{{- end}}
    </keywordSet>
    <intellectualRights>
      <para>{{esc (index .Meta "license")}}</para>
    </intellectualRights>
    <distribution scope="document">
      <online>
        <url function="information">{{esc (index .Meta "distribution_url")}}</url>
      </online>
    </distribution>
    <project>
      <title>{{esc (index .Meta "project_title")}}</title>
      <funding>
        <para>{{esc (index .Meta "funding")}}</para>
      </funding>
{{- range .Contributors}}
      <personnel>
        <individualName>
          <surName>{{esc .Name}}</surName>
        </individualName>
        <role>{{esc .Role}}</role>
      </personnel>
{{- end}}
    </project>
    <methods>
      <methodStep>
        <description>
          <para>{{esc (index .Meta "methods")}}</para>
        </description>
      </methodStep>
    </methods>
  </dataset>
</eml:eml>
`))

// Assemble renders the metadata bag as an EML document. Section order is
// fixed regardless of which keys are populated.
func Assemble(meta Metadata) (string, []diag.Diagnostic, error) {
	contributors, diags := meta.Contributors()

	var buf strings.Builder
	err := docTemplate.Execute(&buf, templateData{
		Meta:         meta,
		Keywords:     meta.Keywords(),
		Contributors: contributors,
	})
	if err != nil {
		return "", nil, fmt.Errorf("render eml: %w", err)
	}
	return buf.String(), diags, nil
}

func escape(s string) string {
	var buf strings.Builder
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}
