package shared

import "strings"

// LocalizedText carries a bilingual label. Primary is the default display
// name, Secondary the translation (Arabic in the reference deployment).
// Rendering is a presentation concern; the domain only stores both values.
type LocalizedText struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary,omitempty"`
}

// NewLocalizedText trims both values.
func NewLocalizedText(primary, secondary string) LocalizedText {
	return LocalizedText{Primary: strings.TrimSpace(primary), Secondary: strings.TrimSpace(secondary)}
}

// IsEmpty reports whether no primary label is present.
func (t LocalizedText) IsEmpty() bool {
	return strings.TrimSpace(t.Primary) == ""
}

// String returns the primary label.
func (t LocalizedText) String() string {
	return t.Primary
}
