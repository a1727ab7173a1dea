package models

// DocumentSections maps a section id to the raw text extracted for it.
// Sections absent from the map are treated as empty.
type DocumentSections map[string]string

// Text returns the content for id, or "" when the section was not found.
func (d DocumentSections) Text(id string) string {
	if d == nil {
		return ""
	}
	return d[id]
}
