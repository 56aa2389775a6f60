package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/refinery/internal/reference"
)

const (
	// Title truncation length for list output
	ListTitleMaxLen = 60
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputJSONCompact writes a value as compact JSON to stdout.
func outputJSONCompact(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status  string `json:"status"`
	BatchID string `json:"batch_id,omitempty"`
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatAuthorsShort formats family names with "et al." past maxCount.
func formatAuthorsShort(families []string, maxCount int) string {
	if len(families) == 0 {
		return ""
	}
	var names []string
	for i, f := range families {
		if i >= maxCount {
			names = append(names, "et al.")
			break
		}
		names = append(names, f)
	}
	return strings.Join(names, ", ")
}

// printReferenceHuman prints one reference as a numbered list entry.
func printReferenceHuman(r *reference.ParsedReference) {
	if r.Error != "" {
		fmt.Printf("%d. [unparsed] %s\n", r.Index+1, truncateString(r.OriginalText, ListTitleMaxLen))
		return
	}
	fmt.Printf("%d. %s (%d) %s\n", r.Index+1,
		formatAuthorsShort(r.Fields.FamilyNames, 3), r.Fields.Year,
		truncateString(r.Fields.Title, ListTitleMaxLen))
	if r.Fields.DOI != "" {
		fmt.Printf("   doi:%s\n", r.Fields.DOI)
	}
	if len(r.MissingFields) > 0 {
		fmt.Printf("   missing: %s\n", strings.Join(r.MissingFields, ", "))
	}
}
