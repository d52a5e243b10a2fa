// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ElementRecord is the serialized form of a specification element, used
// by the YAML/JSON dumps and the element index.
type ElementRecord struct {
	// Name is the element identifier, e.g. "TD_SYS_REQ_simple_sys_req".
	Name string `json:"name" yaml:"name"`

	// Variant is the element type tag, e.g. "SystemRequirement".
	Variant string `json:"variant" yaml:"variant"`

	// OrderingID is the 1-based position of the element within its file.
	OrderingID int `json:"ordering_id" yaml:"ordering_id"`

	// FilePath is the source document.
	FilePath string `json:"file_path" yaml:"file_path"`

	// Title is the raw heading text (for use-cases, the enclosing heading).
	Title string `json:"title" yaml:"title"`

	// Content maps section keys to their lines in document order.
	Content map[string][]string `json:"content,omitempty" yaml:"content,omitempty"`

	// UsageSections holds the filled use-case usage slots.
	UsageSections map[string]string `json:"usage_sections,omitempty" yaml:"usage_sections,omitempty"`

	Impact        string `json:"impact,omitempty" yaml:"impact,omitempty"`
	Detectability string `json:"detectability,omitempty" yaml:"detectability,omitempty"`

	// TCL is the derived tool confidence level; empty when the classes are invalid.
	TCL string `json:"tcl,omitempty" yaml:"tcl,omitempty"`

	QualificationRelated bool `json:"qualification_related" yaml:"qualification_related"`
	SoftwareElement      bool `json:"software_element" yaml:"software_element"`
	NonFunctional        bool `json:"non_functional,omitempty" yaml:"non_functional,omitempty"`

	// ParsingIssues lists anomalies found while extracting the element.
	ParsingIssues []string `json:"parsing_issues,omitempty" yaml:"parsing_issues,omitempty"`
}

// LinkRecord is one forward reference stored in the element index.
type LinkRecord struct {
	Source string `json:"source" yaml:"source"`
	Label  string `json:"label" yaml:"label"`
	Target string `json:"target" yaml:"target"`
}

// CheckRun records one validation pass over the documentation.
type CheckRun struct {
	ID       string    `json:"id" yaml:"id"`
	Started  time.Time `json:"started" yaml:"started"`
	Prefix   string    `json:"prefix" yaml:"prefix"`
	Elements int       `json:"elements" yaml:"elements"`
	Issues   int       `json:"issues" yaml:"issues"`
}
