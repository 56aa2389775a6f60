package reference

// Change types recorded when enrichment mutates a reference.
const (
	ChangeAdded     = "added"
	ChangeUpdated   = "updated"
	ChangeUnchanged = "unchanged"
)

// ValidationChange records the outcome of merging one field during
// enrichment. Unchanged entries are retained for audit and filtered
// from user-facing summaries.
type ValidationChange struct {
	Field  string `json:"field"`
	Type   string `json:"type"`
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

// DiffFields compares two field sets over the merge fields plus authors
// and returns one change entry per field that has a value on either
// side. Fields empty on both sides produce no entry.
func DiffFields(before, after *ExtractedFields) []ValidationChange {
	fields := append([]string{FieldAuthors}, MergeFields...)

	var changes []ValidationChange
	for _, field := range fields {
		b, a := before.Value(field), after.Value(field)
		switch {
		case b == "" && a == "":
			continue
		case b == "" && a != "":
			changes = append(changes, ValidationChange{Field: field, Type: ChangeAdded, After: a})
		case a != "" && a != b:
			changes = append(changes, ValidationChange{Field: field, Type: ChangeUpdated, Before: b, After: a})
		default:
			changes = append(changes, ValidationChange{Field: field, Type: ChangeUnchanged, Before: b, After: b})
		}
	}
	return changes
}

// FilterChanged drops unchanged audit entries, leaving only additions
// and updates for user-facing summaries.
func FilterChanged(changes []ValidationChange) []ValidationChange {
	out := make([]ValidationChange, 0, len(changes))
	for _, c := range changes {
		if c.Type != ChangeUnchanged {
			out = append(out, c)
		}
	}
	return out
}
