package model

// Candidate is a matched element as it appears in a scan report.
type Candidate struct {
	Path       string            `yaml:"p,omitempty"   json:"p,omitempty"` // Tag breadcrumb, e.g. "body > form > button"
	Descriptor ElementDescriptor `yaml:"el"            json:"el"`
	Rule       string            `yaml:"rule"          json:"rule"`  // keyword or card-field
	Field      string            `yaml:"field"         json:"field"` // descriptor field that matched
	Keyword    string            `yaml:"kw,omitempty"  json:"kw,omitempty"`
	Blocked    bool              `yaml:"blocked"       json:"blocked"`
}

// ScanReport is the output of a scan over one page.
type ScanReport struct {
	URL        string      `yaml:"url,omitempty"     json:"url,omitempty"`
	TS         int64       `yaml:"ts"                json:"ts"`
	Scanned    int         `yaml:"scanned"           json:"scanned"`
	Adopted    int         `yaml:"adopted,omitempty" json:"adopted,omitempty"`
	Candidates []Candidate `yaml:"candidates"        json:"candidates"`
}
