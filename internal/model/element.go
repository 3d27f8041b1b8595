package model

// Tag is the coarse element kind the classifier reasons about.
type Tag string

const (
	TagButton Tag = "button"
	TagInput  Tag = "input"
	TagAnchor Tag = "anchor"
	TagForm   Tag = "form"
	TagOther  Tag = "other" // any other element with an actionable role
)

// ElementDescriptor is a read-only snapshot of a candidate UI element.
// Empty strings mean the field is absent on the element.
type ElementDescriptor struct {
	Tag         Tag    `yaml:"tag"                   json:"tag"`
	TextContent string `yaml:"text,omitempty"        json:"text,omitempty"`
	Value       string `yaml:"value,omitempty"       json:"value,omitempty"` // Only captured for button-like elements
	AriaLabel   string `yaml:"aria_label,omitempty"  json:"aria_label,omitempty"`
	Name        string `yaml:"name,omitempty"        json:"name,omitempty"`
	ID          string `yaml:"id,omitempty"          json:"id,omitempty"`
	Placeholder string `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Role        string `yaml:"role,omitempty"        json:"role,omitempty"`
	InputType   string `yaml:"input_type,omitempty"  json:"input_type,omitempty"` // Only meaningful for TagInput
}

// TextFields returns the free-text fields in a fixed order. The order is
// used for reporting which field matched; classification does not depend on it.
func (d ElementDescriptor) TextFields() []Field {
	return []Field{
		{Name: "text", Value: d.TextContent},
		{Name: "value", Value: d.Value},
		{Name: "aria_label", Value: d.AriaLabel},
		{Name: "name", Value: d.Name},
		{Name: "id", Value: d.ID},
		{Name: "placeholder", Value: d.Placeholder},
		{Name: "role", Value: d.Role},
	}
}

// Field is a named descriptor field.
type Field struct {
	Name  string
	Value string
}
