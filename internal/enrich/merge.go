package enrich

import (
	"github.com/matsen/refinery/internal/reference"
	"github.com/matsen/refinery/internal/source"
)

// mergeCandidates builds the merged field set: for each field, the
// first non-empty value across the responses taken in priority order.
// Author lists are merged as a unit from the highest-priority source
// that has any.
func mergeCandidates(order []string, responses map[string]*source.Candidate) reference.ExtractedFields {
	var merged reference.ExtractedFields

	for _, name := range order {
		cand, ok := responses[name]
		if !ok {
			continue
		}
		if len(merged.FamilyNames) == 0 && len(cand.Fields.FamilyNames) > 0 {
			merged.FamilyNames = append([]string(nil), cand.Fields.FamilyNames...)
			merged.GivenNames = append([]string(nil), cand.Fields.GivenNames...)
		}
		for _, field := range reference.MergeFields {
			if merged.Value(field) == "" {
				if v := cand.Fields.Value(field); v != "" {
					merged.SetValue(field, v)
				}
			}
		}
	}

	merged.FullNames = merged.FullNamesFromParts()
	return merged
}

// applyMerged overlays the merged fields onto the reference, refreshes
// its derived state and returns the per-field change list. Existing
// values are replaced only by a non-empty, different merged value.
func applyMerged(ref *reference.ParsedReference, merged reference.ExtractedFields) []reference.ValidationChange {
	before := ref.Fields
	before.FamilyNames = append([]string(nil), ref.Fields.FamilyNames...)
	before.GivenNames = append([]string(nil), ref.Fields.GivenNames...)
	before.FullNames = append([]string(nil), ref.Fields.FullNames...)

	if len(ref.Fields.FamilyNames) == 0 && len(merged.FamilyNames) > 0 {
		ref.Fields.FamilyNames = append([]string(nil), merged.FamilyNames...)
		ref.Fields.GivenNames = append([]string(nil), merged.GivenNames...)
	}
	for _, field := range reference.MergeFields {
		v := merged.Value(field)
		if v != "" && v != ref.Fields.Value(field) {
			ref.Fields.SetValue(field, v)
		}
	}

	ref.Recompute()
	return reference.DiffFields(&before, &ref.Fields)
}
