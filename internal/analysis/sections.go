// Package analysis computes the sections of an AI-derived job-fit report.
package analysis

import (
	"embed"
	"fmt"
)

// Section name constants for the fit report
const (
	SectionSummary     = "summary"
	SectionSkills      = "skills"
	SectionGaps        = "gaps"
	SectionSeniority   = "seniority"
	SectionLocation    = "location"
	SectionSuggestions = "suggestions"
)

// Sections is the fixed, ordered list of report sections. The worker computes
// sections strictly in this order; do not reorder without a data migration of
// consumers that assume it.
var Sections = []string{
	SectionSummary,
	SectionSkills,
	SectionGaps,
	SectionSeniority,
	SectionLocation,
	SectionSuggestions,
}

//go:embed schemas/*.json
var schemaFiles embed.FS

// ValidSection reports whether name is one of the known report sections
func ValidSection(name string) bool {
	for _, s := range Sections {
		if s == name {
			return true
		}
	}
	return false
}

// SchemaFor returns the JSON Schema source for a section's content
func SchemaFor(section string) (string, error) {
	if !ValidSection(section) {
		return "", fmt.Errorf("unknown section: %s", section)
	}
	data, err := schemaFiles.ReadFile("schemas/" + section + ".json")
	if err != nil {
		return "", fmt.Errorf("failed to read schema for section %s: %w", section, err)
	}
	return string(data), nil
}
