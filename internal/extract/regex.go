package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/matsen/refinery/internal/reference"
)

// minEntryLength is the shortest text accepted as a reference entry.
const minEntryLength = 20

var (
	// DOI pattern: 10.XXXX/... where XXXX is 4+ digits.
	doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

	// Entry markers: "1. " or "[1] " at the start of a line.
	entryMarker = regexp.MustCompile(`^\s*(?:\[\d+\]|\d{1,3}\.)\s+`)

	// Section headings that introduce a reference list.
	sectionHeading = regexp.MustCompile(`(?i)^\s*(references|bibliography|literature cited|works cited)\s*:?\s*$`)

	parenYear = regexp.MustCompile(`\((19|20)\d{2}[a-z]?\)`)
	bareYear  = regexp.MustCompile(`\b(19|20)\d{2}\b`)

	// Page ranges introduced by a volume colon or a pp. marker.
	pageRange = regexp.MustCompile(`(?:pp?\.?\s+|:\s*)(\d+)\s*[-–—]\s*(\d+)`)

	urlPattern = regexp.MustCompile(`https?://\S+`)

	// initials like "J.", "A. B." or "AB".
	initialsPattern = regexp.MustCompile(`^(?:[A-Z]\.?\s*)+$`)

	andSeparator = regexp.MustCompile(`\s+(?:and|&)\s+`)
)

// RegexExtractor parses reference entries with regular expressions and
// positional heuristics.
type RegexExtractor struct{}

// NewRegexExtractor creates the regex-based extractor.
func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

func (e *RegexExtractor) Name() string { return "regex" }

// Parse splits the document into entries and extracts fields from each.
func (e *RegexExtractor) Parse(ctx context.Context, doc Document) ([]reference.ParsedReference, error) {
	entries := SplitEntries(doc.Text)
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoReferences, doc.Name)
	}

	refs := make([]reference.ParsedReference, 0, len(entries))
	for i, text := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r := reference.ParsedReference{
			Index:        i,
			OriginalText: text,
			ParserUsed:   e.Name(),
		}
		fields, err := extractFields(text)
		if err != nil {
			r.Error = err.Error()
		} else {
			r.Fields = fields
			r.Quality.InitialQualityScore = fields.QualityScore()
			r.Recompute()
			r.TaggedOutput = r.Tagged()
		}
		refs = append(refs, r)
	}
	return refs, nil
}

// SplitEntries cuts document text into individual reference entries.
// A references section heading, when present, discards everything
// before it. Numbered markers delimit entries; without markers, blank
// lines do.
func SplitEntries(text string) []string {
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		if sectionHeading.MatchString(line) {
			lines = lines[i+1:]
			break
		}
	}

	numbered := false
	for _, line := range lines {
		if entryMarker.MatchString(line) {
			numbered = true
			break
		}
	}

	var raw []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			raw = append(raw, strings.Join(current, " "))
			current = nil
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case numbered && entryMarker.MatchString(line):
			flush()
			current = append(current, entryMarker.ReplaceAllString(line, ""))
		case trimmed == "" && !numbered:
			flush()
		case trimmed == "":
			// Blank lines inside a numbered list are ignored.
		default:
			current = append(current, trimmed)
		}
	}
	flush()

	entries := make([]string, 0, len(raw))
	for _, e := range raw {
		e = strings.Join(strings.Fields(e), " ")
		if len(e) >= minEntryLength {
			entries = append(entries, e)
		}
	}
	return entries
}

// extractFields pulls bibliographic fields out of one entry.
func extractFields(text string) (reference.ExtractedFields, error) {
	var f reference.ExtractedFields

	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minEntryLength {
		return f, fmt.Errorf("reference text too short to parse")
	}

	f.DOI = reference.NormalizeDOI(findDOI(trimmed))

	yearLoc := parenYear.FindStringIndex(trimmed)
	if yearLoc == nil {
		yearLoc = bareYear.FindStringIndex(trimmed)
	}
	if yearLoc != nil {
		digits := strings.Trim(trimmed[yearLoc[0]:yearLoc[1]], "()abc")
		if y, err := strconv.Atoi(digits); err == nil {
			f.Year = y
		}
	}

	if m := pageRange.FindStringSubmatch(trimmed); m != nil {
		f.Pages = m[1] + "-" + m[2]
	}

	if m := urlPattern.FindString(trimmed); m != "" {
		m = strings.TrimRight(m, ".,;)")
		if !strings.Contains(m, "doi.org") {
			f.URL = m
		}
	}

	if yearLoc != nil {
		f.FamilyNames, f.GivenNames = parseAuthors(trimmed[:yearLoc[0]])
		f.Title, f.Journal = titleAndJournal(trimmed[yearLoc[1]:])
	}
	f.FullNames = f.FullNamesFromParts()

	if f.Title == "" && f.Year == 0 && len(f.FamilyNames) == 0 {
		return reference.ExtractedFields{}, fmt.Errorf("no recognizable fields in reference text")
	}
	return f, nil
}

// parseAuthors splits the text before the year into family and given
// name lists. Handles "Doe, J., and Smith, A. B." and "Doe J, Smith AB"
// forms.
func parseAuthors(s string) (families, givens []string) {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ",;: ")
	s = andSeparator.ReplaceAllString(s, ", ")

	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	for i := 0; i < len(parts); i++ {
		p := parts[i]
		if initialsPattern.MatchString(p) {
			// Initials with no preceding surname; nothing to anchor to.
			continue
		}
		if i+1 < len(parts) && initialsPattern.MatchString(parts[i+1]) {
			families = append(families, p)
			givens = append(givens, strings.TrimSpace(parts[i+1]))
			i++
			continue
		}
		words := strings.Fields(p)
		if len(words) >= 2 && initialsPattern.MatchString(words[len(words)-1]) {
			families = append(families, strings.Join(words[:len(words)-1], " "))
			givens = append(givens, words[len(words)-1])
			continue
		}
		families = append(families, p)
		givens = append(givens, "")
	}
	return families, givens
}

// titleAndJournal reads the title (up to the first sentence period)
// and the journal (up to the first digit of the volume) from the text
// after the year.
func titleAndJournal(s string) (title, journal string) {
	s = strings.TrimLeft(s, ").,;: ")

	dot := strings.Index(s, ". ")
	if dot < 0 {
		if end := strings.LastIndex(s, "."); end > 0 {
			title = strings.TrimSpace(s[:end])
		} else {
			title = strings.TrimSpace(s)
		}
		return title, ""
	}
	title = strings.TrimSpace(s[:dot])

	rest := strings.TrimLeft(s[dot+1:], " ")
	if strings.HasPrefix(rest, "http") || strings.HasPrefix(rest, "doi") {
		return title, ""
	}
	for i, r := range rest {
		if r >= '0' && r <= '9' {
			rest = rest[:i]
			break
		}
	}
	if dot := strings.Index(rest, "."); dot >= 0 {
		rest = rest[:dot]
	}
	journal = strings.Trim(rest, " ,;:")
	return title, journal
}

// findDOI finds the first plausible DOI in text.
func findDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		if reference.NormalizeDOI(match) != "" {
			return match
		}
	}
	return ""
}
