// Package validate drives enrichment over a batch: mode-based
// reference selection, a bounded worker pool over the orchestrator,
// and a typed progress event stream.
package validate

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/matsen/refinery/internal/batch"
	"github.com/matsen/refinery/internal/enrich"
	"github.com/matsen/refinery/internal/reference"
)

// Mode names a reference selection policy.
type Mode string

const (
	// ModeQuick selects references whose only missing field is the DOI.
	ModeQuick Mode = "quick"
	// ModeStandard selects references with any missing required field.
	ModeStandard Mode = "standard"
	// ModeThorough selects every parseable reference.
	ModeThorough Mode = "thorough"
	// ModeCustom selects exactly the caller-supplied indices.
	ModeCustom Mode = "custom"
)

// DefaultWorkers is the width of the enrichment worker pool.
const DefaultWorkers = 5

// Options configures one validation run.
type Options struct {
	Mode    Mode     `json:"mode"`
	Indices []int    `json:"indices,omitempty"`
	Sources []string `json:"sources,omitempty"`
	Workers int      `json:"workers,omitempty"`
}

// Coordinator runs validation over batches held by a Manager.
type Coordinator struct {
	manager      *batch.Manager
	orchestrator *enrich.Orchestrator
}

// NewCoordinator creates a coordinator.
func NewCoordinator(m *batch.Manager, o *enrich.Orchestrator) *Coordinator {
	return &Coordinator{manager: m, orchestrator: o}
}

// Run claims the batch, enriches the selected references and returns
// the event stream. Structural failures (unknown batch, conflicting
// run, bad options) are returned synchronously before any claim
// outlives the call; everything later arrives as events. The channel
// always terminates with exactly one complete or error event.
func (c *Coordinator) Run(ctx context.Context, batchID string, opts Options) (<-chan Event, error) {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}

	b, err := c.manager.GetBatch(batchID)
	if err != nil {
		return nil, err
	}

	if _, err := SelectIndices(b.References, opts.Mode, opts.Indices); err != nil {
		return nil, err
	}

	token, err := c.manager.BeginValidation(batchID)
	if err != nil {
		return nil, err
	}

	// The claim serializes runs on the batch; re-read so this run works
	// on whatever state the previous run left behind.
	b, err = c.manager.GetBatch(batchID)
	if err != nil {
		c.manager.AbortValidation(batchID, token)
		return nil, err
	}
	selected, err := SelectIndices(b.References, opts.Mode, opts.Indices)
	if err != nil {
		c.manager.AbortValidation(batchID, token)
		return nil, err
	}

	// The buffer holds every event the run can produce, so no send ever
	// blocks and the terminal event is delivered even to a consumer that
	// stops reading.
	events := make(chan Event, 2*len(selected)+1)
	go c.run(ctx, b, token, selected, opts, events)
	return events, nil
}

// SelectIndices applies a validation mode to a reference list and
// returns the indices to enrich, ascending. References that failed
// extraction are never selected by the named modes; custom selection
// takes the caller's list verbatim.
func SelectIndices(refs []reference.ParsedReference, mode Mode, custom []int) ([]int, error) {
	switch mode {
	case ModeCustom:
		if len(custom) == 0 {
			return nil, fmt.Errorf("%w: custom mode requires indices", batch.ErrInvalidInput)
		}
		seen := make(map[int]bool, len(custom))
		out := make([]int, 0, len(custom))
		for _, idx := range custom {
			if idx < 0 || idx >= len(refs) {
				return nil, fmt.Errorf("%w: index %d out of range", batch.ErrInvalidInput, idx)
			}
			if !seen[idx] {
				seen[idx] = true
				out = append(out, idx)
			}
		}
		sort.Ints(out)
		return out, nil
	case ModeQuick, ModeStandard, ModeThorough:
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", batch.ErrInvalidInput, mode)
	}

	var out []int
	for i := range refs {
		r := &refs[i]
		if r.Error != "" {
			continue
		}
		switch mode {
		case ModeQuick:
			if len(r.MissingFields) == 1 && r.MissingFields[0] == reference.FieldDOI {
				out = append(out, i)
			}
		case ModeStandard:
			if len(r.MissingFields) > 0 {
				out = append(out, i)
			}
		case ModeThorough:
			out = append(out, i)
		}
	}
	return out, nil
}

// run is the producer goroutine behind the event stream.
func (c *Coordinator) run(ctx context.Context, b *batch.Batch, token string, selected []int, opts Options, events chan<- Event) {
	defer close(events)

	results, runErr := c.enrichAll(ctx, b, selected, opts, events)
	if runErr != nil {
		// Cancellation or batch disappearance: release the claim so
		// the batch can be retried.
		c.manager.AbortValidation(b.ID, token)
		c.emitFinal(events, errorEvent(runErr))
		return
	}

	final := make([]reference.ParsedReference, len(b.References))
	for i := range b.References {
		final[i] = b.References[i].Clone()
	}
	enriched, fromCache := 0, 0
	for idx, res := range results {
		final[idx] = res.Reference
		if res.FromCache {
			fromCache++
		}
		if len(reference.FilterChanged(res.Changes)) > 0 {
			enriched++
		}
	}
	sort.Slice(final, func(i, j int) bool { return final[i].Index < final[j].Index })

	result := &batch.ValidationResult{
		Mode:         string(opts.Mode),
		References:   final,
		Enriched:     enriched,
		FromCache:    fromCache,
		CacheHitRate: rate(fromCache, len(selected)),
	}
	if err := c.manager.CompleteValidation(b.ID, token, result); err != nil {
		c.emitFinal(events, errorEvent(err))
		return
	}

	c.emitFinal(events, completeEvent(final, Summary{
		Enriched:     enriched,
		FromCache:    fromCache,
		CacheHitRate: result.CacheHitRate,
	}))
}

// enrichAll runs the worker pool over the selected indices, emitting
// progress and result events as references complete.
func (c *Coordinator) enrichAll(ctx context.Context, b *batch.Batch, selected []int, opts Options, events chan<- Event) (map[int]*enrich.Result, error) {
	total := len(selected)
	jobs := make(chan int)
	type outcome struct {
		idx int
		res *enrich.Result
		err error
	}
	outcomes := make(chan outcome)

	workers := opts.Workers
	if workers > total {
		workers = total
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				res, err := c.orchestrator.Enrich(ctx, b.References[idx], opts.Sources)
				select {
				case outcomes <- outcome{idx: idx, res: res, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, idx := range selected {
			select {
			case jobs <- idx:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	results := make(map[int]*enrich.Result, total)
	done := 0
	for out := range outcomes {
		if out.err != nil {
			return nil, out.err
		}
		results[out.idx] = out.res
		done++

		c.emit(ctx, events, progressEvent(done, total, &out.res.Reference))
		c.emit(ctx, events, resultEvent(out.res))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if done != total {
		return nil, context.Canceled
	}
	return results, nil
}

// emit sends an event unless the caller has gone away.
func (c *Coordinator) emit(ctx context.Context, events chan<- Event, ev Event) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

// emitFinal delivers a terminal event. The channel buffer is sized for
// the whole run, so the send cannot block even when the consumer has
// stopped reading or the context is already done.
func (c *Coordinator) emitFinal(events chan<- Event, ev Event) {
	events <- ev
}

func rate(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}
