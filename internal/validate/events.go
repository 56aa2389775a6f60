package validate

import (
	"github.com/matsen/refinery/internal/enrich"
	"github.com/matsen/refinery/internal/reference"
)

// Event types carried on the validation stream.
const (
	EventProgress = "progress"
	EventResult   = "result"
	EventComplete = "complete"
	EventError    = "error"
)

// Summary is the run summary carried by the complete event.
type Summary struct {
	Enriched     int     `json:"enriched"`
	FromCache    int     `json:"from_cache"`
	CacheHitRate float64 `json:"cache_hit_rate"`
}

// Event is one frame of the validation progress stream. Each event is
// independently serializable; the stream ends with exactly one
// complete or error event followed by channel close.
type Event struct {
	Type string `json:"type"`

	// progress
	Current  int     `json:"current,omitempty"`
	Total    int     `json:"total,omitempty"`
	Progress float64 `json:"progress,omitempty"`

	// progress and result
	Reference *reference.ParsedReference `json:"reference,omitempty"`

	// result
	Changes     []reference.ValidationChange `json:"changes,omitempty"`
	SourcesUsed []string                     `json:"sources_used,omitempty"`
	FromCache   bool                         `json:"from_cache,omitempty"`

	// complete
	References []reference.ParsedReference `json:"references,omitempty"`
	Summary    *Summary                    `json:"summary,omitempty"`

	// error
	Message string `json:"message,omitempty"`
}

func progressEvent(current, total int, ref *reference.ParsedReference) Event {
	return Event{
		Type:      EventProgress,
		Current:   current,
		Total:     total,
		Progress:  rate(current, total) * 100,
		Reference: ref,
	}
}

func resultEvent(res *enrich.Result) Event {
	return Event{
		Type:        EventResult,
		Reference:   &res.Reference,
		Changes:     reference.FilterChanged(res.Changes),
		SourcesUsed: res.SourcesUsed,
		FromCache:   res.FromCache,
	}
}

func completeEvent(refs []reference.ParsedReference, s Summary) Event {
	return Event{
		Type:       EventComplete,
		References: refs,
		Summary:    &s,
	}
}

func errorEvent(err error) Event {
	return Event{Type: EventError, Message: err.Error()}
}
