// Package cache stores enrichment results keyed by reference
// fingerprint so repeat validations skip the external APIs.
package cache

import (
	"time"

	"github.com/matsen/refinery/internal/reference"
)

// Entry is one cached enrichment result. SourcesUsed are the sources
// that answered; Consulted is the full candidate list the merge was
// computed over, which decides whether the entry can answer a later
// call.
type Entry struct {
	Fingerprint string                    `json:"fingerprint"`
	Fields      reference.ExtractedFields `json:"fields"`
	SourcesUsed []string                  `json:"sources_used"`
	Consulted   []string                  `json:"consulted"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// Stats summarizes cache effectiveness since the last Clear.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Size    int     `json:"size"`
	MaxSize int     `json:"max_size"`
	HitRate float64 `json:"hit_rate"`
}

// Cache is the enrichment cache contract. Lookup returns (nil, nil) on
// a miss; implementations count hits and misses themselves.
type Cache interface {
	Lookup(fingerprint string) (*Entry, error)
	Store(e Entry) error
	Stats() (Stats, error)
	Clear() error
}

// hitRate computes the hit fraction, zero when nothing was looked up.
func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
