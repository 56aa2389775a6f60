// Package reference defines the core domain types for parsed bibliographic references.
package reference

import (
	"strconv"
	"strings"
)

// ParsedReference represents one reference extracted from a document.
type ParsedReference struct {
	// Index is the reference's position in the source document,
	// stable within a batch.
	Index        int    `json:"index"`
	OriginalText string `json:"original_text"`
	ParserUsed   string `json:"parser_used"`

	Fields  ExtractedFields `json:"extracted_fields"`
	Quality QualityMetrics  `json:"quality_metrics"`

	// MissingFields is derived from Fields via Recompute; it is never
	// set by hand.
	MissingFields []string `json:"missing_fields"`

	TaggedOutput      string   `json:"tagged_output,omitempty"`
	EnrichmentSources []string `json:"enrichment_sources,omitempty"`

	// Error is set when extraction itself failed. A reference with an
	// extraction error carries no extracted fields.
	Error string `json:"error,omitempty"`
}

// ExtractedFields holds the structured bibliographic fields of a reference.
type ExtractedFields struct {
	FamilyNames []string `json:"family_names"`
	GivenNames  []string `json:"given_names"`
	FullNames   []string `json:"full_names"`
	Year        int      `json:"year,omitempty"`
	Title       string   `json:"title,omitempty"`
	Journal     string   `json:"journal,omitempty"`
	DOI         string   `json:"doi,omitempty"`
	Pages       string   `json:"pages,omitempty"`
	Publisher   string   `json:"publisher,omitempty"`
	URL         string   `json:"url,omitempty"`
	Abstract    string   `json:"abstract,omitempty"`
}

// QualityMetrics tracks extraction quality before and after enrichment.
type QualityMetrics struct {
	InitialQualityScore float64 `json:"initial_quality_score"`
	FinalQualityScore   float64 `json:"final_quality_score"`
	QualityImprovement  float64 `json:"quality_improvement"`
}

// Canonical field names. RequiredFields are the fields whose absence
// puts a reference into MissingFields; MergeFields are the fields the
// enrichment merge considers.
const (
	FieldAuthors   = "authors"
	FieldYear      = "year"
	FieldTitle     = "title"
	FieldJournal   = "journal"
	FieldDOI       = "doi"
	FieldPages     = "pages"
	FieldPublisher = "publisher"
	FieldURL       = "url"
	FieldAbstract  = "abstract"
)

// RequiredFields are the canonical fields a complete reference must have.
var RequiredFields = []string{
	FieldAuthors, FieldYear, FieldTitle, FieldJournal, FieldDOI, FieldPages,
}

// MergeFields are the fields evaluated when merging enrichment results.
var MergeFields = []string{
	FieldTitle, FieldYear, FieldJournal, FieldDOI, FieldPages,
	FieldPublisher, FieldURL, FieldAbstract,
}

// Value returns the string form of a canonical field. Empty string
// means the field is absent.
func (f *ExtractedFields) Value(field string) string {
	switch field {
	case FieldAuthors:
		return strings.Join(f.FamilyNames, "; ")
	case FieldYear:
		if f.Year == 0 {
			return ""
		}
		return strconv.Itoa(f.Year)
	case FieldTitle:
		return f.Title
	case FieldJournal:
		return f.Journal
	case FieldDOI:
		return f.DOI
	case FieldPages:
		return f.Pages
	case FieldPublisher:
		return f.Publisher
	case FieldURL:
		return f.URL
	case FieldAbstract:
		return f.Abstract
	}
	return ""
}

// SetValue sets a canonical field from its string form. Setting
// FieldAuthors replaces the family name list with the single value;
// use the slice fields directly for structured author updates.
func (f *ExtractedFields) SetValue(field, value string) {
	switch field {
	case FieldAuthors:
		f.FamilyNames = []string{value}
	case FieldYear:
		if y, err := strconv.Atoi(value); err == nil {
			f.Year = y
		}
	case FieldTitle:
		f.Title = value
	case FieldJournal:
		f.Journal = value
	case FieldDOI:
		f.DOI = value
	case FieldPages:
		f.Pages = value
	case FieldPublisher:
		f.Publisher = value
	case FieldURL:
		f.URL = value
	case FieldAbstract:
		f.Abstract = value
	}
}

// Missing returns the required canonical fields that are absent or empty.
func (f *ExtractedFields) Missing() []string {
	missing := make([]string, 0, len(RequiredFields))
	for _, field := range RequiredFields {
		if f.Value(field) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// Field weights for quality scoring. Identity fields count more than
// locator fields.
var qualityWeights = []struct {
	field  string
	weight float64
}{
	{FieldDOI, 0.20},
	{FieldTitle, 0.20},
	{FieldAuthors, 0.15},
	{FieldYear, 0.10},
	{FieldJournal, 0.10},
	{FieldAbstract, 0.10},
	{FieldPages, 0.05},
	{FieldPublisher, 0.05},
	{FieldURL, 0.05},
}

// QualityScore returns a completeness score in [0,1] over the canonical
// fields, weighted by field importance.
func (f *ExtractedFields) QualityScore() float64 {
	var score float64
	for _, w := range qualityWeights {
		if f.Value(w.field) != "" {
			score += w.weight
		}
	}
	if score > 1 {
		score = 1
	}
	return score
}

// FullNamesFromParts rebuilds FullNames from the family and given name
// lists, pairing by position.
func (f *ExtractedFields) FullNamesFromParts() []string {
	names := make([]string, 0, len(f.FamilyNames))
	for i, family := range f.FamilyNames {
		if i < len(f.GivenNames) && f.GivenNames[i] != "" {
			names = append(names, f.GivenNames[i]+" "+family)
		} else {
			names = append(names, family)
		}
	}
	return names
}

// Recompute refreshes all derived state on the reference: missing
// fields, full names, final quality score and improvement over the
// initial score. Call after any field mutation.
func (r *ParsedReference) Recompute() {
	r.MissingFields = r.Fields.Missing()
	r.Fields.FullNames = r.Fields.FullNamesFromParts()
	r.Quality.FinalQualityScore = r.Fields.QualityScore()
	r.Quality.QualityImprovement = r.Quality.FinalQualityScore - r.Quality.InitialQualityScore
}

// Clone returns a deep copy of the reference.
func (r *ParsedReference) Clone() ParsedReference {
	out := *r
	out.Fields.FamilyNames = append([]string(nil), r.Fields.FamilyNames...)
	out.Fields.GivenNames = append([]string(nil), r.Fields.GivenNames...)
	out.Fields.FullNames = append([]string(nil), r.Fields.FullNames...)
	out.MissingFields = append([]string(nil), r.MissingFields...)
	out.EnrichmentSources = append([]string(nil), r.EnrichmentSources...)
	return out
}
