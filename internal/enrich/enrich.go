// Package enrich resolves a single reference's enrichment: concurrent
// source fan-out under deadlines, priority merge, change tracking and
// cache write-back.
package enrich

import (
	"context"
	"time"

	"github.com/matsen/refinery/internal/cache"
	"github.com/matsen/refinery/internal/reference"
	"github.com/matsen/refinery/internal/source"
)

const (
	// DefaultPerSourceTimeout bounds one source lookup.
	DefaultPerSourceTimeout = 10 * time.Second

	// DefaultOverallTimeout bounds the whole fan-out for one reference.
	// Kept well above the per-source timeout so a few slow sources
	// cannot stall a reference indefinitely.
	DefaultOverallTimeout = 30 * time.Second
)

// Orchestrator enriches references from a registry of sources, with a
// cache in front of the network.
type Orchestrator struct {
	registry         *source.Registry
	cache            cache.Cache
	perSourceTimeout time.Duration
	overallTimeout   time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPerSourceTimeout overrides the per-source lookup timeout.
func WithPerSourceTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.perSourceTimeout = d }
}

// WithOverallTimeout overrides the whole-reference deadline.
func WithOverallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.overallTimeout = d }
}

// NewOrchestrator creates an orchestrator over the given sources and
// cache. The cache may be nil, in which case every call goes to the
// network.
func NewOrchestrator(registry *source.Registry, c cache.Cache, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:         registry,
		cache:            c,
		perSourceTimeout: DefaultPerSourceTimeout,
		overallTimeout:   DefaultOverallTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Result is the outcome of enriching one reference.
type Result struct {
	Reference      reference.ParsedReference    `json:"reference"`
	Changes        []reference.ValidationChange `json:"changes"`
	SourcesUsed    []string                     `json:"sources_used"`
	SourcesSkipped []string                     `json:"sources_skipped,omitempty"`
	FromCache      bool                         `json:"from_cache"`
}

// response is one source's answer, or its failure.
type response struct {
	name string
	cand *source.Candidate
	err  error
}

// Enrich resolves one reference against the requested sources (all
// registered sources when requested is empty). Source failures and
// timeouts are absorbed: the call succeeds with zero changes when
// nothing answered. The returned error is non-nil only for caller
// cancellation.
func (o *Orchestrator) Enrich(ctx context.Context, ref reference.ParsedReference, requested []string) (*Result, error) {
	ref = ref.Clone()

	// A reference that failed extraction has no fields to enrich.
	if ref.Error != "" {
		return &Result{Reference: ref}, nil
	}

	q := source.QueryFor(&ref.Fields)
	candidates := o.registry.Select(q, requested)
	fingerprint := ref.Fields.Fingerprint()

	if res := o.fromCache(fingerprint, candidates, &ref); res != nil {
		return res, nil
	}

	responses, skipped, err := o.fanOut(ctx, q, candidates)
	if err != nil {
		return nil, err
	}

	mergeOrder := o.registry.MergeOrder(candidates)
	merged := mergeCandidates(mergeOrder, responses)
	changes := applyMerged(&ref, merged)

	var used []string
	for _, name := range mergeOrder {
		if _, ok := responses[name]; ok {
			used = append(used, name)
		}
	}
	ref.EnrichmentSources = used
	ref.TaggedOutput = ref.Tagged()

	if o.cache != nil && len(responses) > 0 {
		// The entry records the full consulted list so a later call
		// with the same candidates is answerable without the network.
		o.cache.Store(cache.Entry{
			Fingerprint: fingerprint,
			Fields:      merged,
			SourcesUsed: used,
			Consulted:   candidates,
		})
	}

	return &Result{
		Reference:      ref,
		Changes:        changes,
		SourcesUsed:    used,
		SourcesSkipped: skipped,
	}, nil
}

// fromCache answers from the cache when the stored entry covers every
// candidate source. Returns nil on a miss or partial coverage.
func (o *Orchestrator) fromCache(fingerprint string, candidates []string, ref *reference.ParsedReference) *Result {
	if o.cache == nil {
		return nil
	}
	entry, err := o.cache.Lookup(fingerprint)
	if err != nil || entry == nil {
		return nil
	}

	consulted := make(map[string]bool, len(entry.Consulted))
	for _, name := range entry.Consulted {
		consulted[name] = true
	}
	for _, name := range candidates {
		if !consulted[name] {
			return nil
		}
	}

	changes := applyMerged(ref, entry.Fields)
	ref.EnrichmentSources = entry.SourcesUsed
	ref.TaggedOutput = ref.Tagged()

	return &Result{
		Reference:   *ref,
		Changes:     changes,
		SourcesUsed: entry.SourcesUsed,
		FromCache:   true,
	}
}

// fanOut queries every candidate source concurrently, each under the
// per-source timeout, and collects whatever arrives before the overall
// deadline. Late and failed sources land in skipped.
func (o *Orchestrator) fanOut(ctx context.Context, q source.Query, candidates []string) (map[string]*source.Candidate, []string, error) {
	runCtx, cancel := context.WithTimeout(ctx, o.overallTimeout)
	defer cancel()

	ch := make(chan response, len(candidates))
	launched := 0
	var skipped []string

	for _, name := range candidates {
		s, ok := o.registry.Get(name)
		if !ok {
			continue
		}
		launched++
		go func(name string, s source.Source) {
			lookupCtx, lookupCancel := context.WithTimeout(runCtx, o.perSourceTimeout)
			defer lookupCancel()
			cand, err := s.Lookup(lookupCtx, q)
			ch <- response{name: name, cand: cand, err: err}
		}(name, s)
	}

	responses := make(map[string]*source.Candidate)
	received := make(map[string]bool)

collect:
	for i := 0; i < launched; i++ {
		select {
		case r := <-ch:
			received[r.name] = true
			if r.err != nil {
				skipped = append(skipped, r.name)
				continue
			}
			if r.cand != nil {
				responses[r.name] = r.cand
			}
		case <-runCtx.Done():
			break collect
		}
	}

	// Anything still outstanding at the deadline is abandoned.
	for _, name := range candidates {
		if _, ok := o.registry.Get(name); !ok {
			continue
		}
		if !received[name] {
			skipped = append(skipped, name)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return responses, skipped, nil
}
