package model

import "strings"

// TagMap maps lowercase HTML tag names to descriptor tags.
var TagMap = map[string]Tag{
	"button": TagButton,
	"input":  TagInput,
	"a":      TagAnchor,
	"form":   TagForm,
}

// ActionableRoles are ARIA roles that make an arbitrary element a candidate.
var ActionableRoles = map[string]bool{
	"button": true,
}

// ButtonLikeInputTypes are input types whose value attribute is a visible
// label rather than user-entered data.
var ButtonLikeInputTypes = map[string]bool{
	"submit": true,
	"button": true,
	"reset":  true,
	"image":  true,
}

// DisableableTags are HTML elements that support the disabled attribute.
var DisableableTags = map[string]bool{
	"button":   true,
	"input":    true,
	"select":   true,
	"textarea": true,
	"fieldset": true,
	"optgroup": true,
	"option":   true,
}

// MapTag converts an HTML tag name to a descriptor tag.
func MapTag(htmlTag string) Tag {
	if t, ok := TagMap[strings.ToLower(htmlTag)]; ok {
		return t
	}
	return TagOther
}

// IsActionableRole reports whether role marks an element as actionable.
func IsActionableRole(role string) bool {
	return ActionableRoles[strings.ToLower(strings.TrimSpace(role))]
}

// IsButtonLikeInput reports whether an input of the given type shows its
// value as a label.
func IsButtonLikeInput(inputType string) bool {
	return ButtonLikeInputTypes[strings.ToLower(strings.TrimSpace(inputType))]
}
