package source

import "sort"

// Select returns the sources to consult for a query, in merge priority
// order. An explicit requested list restricts the result to those names;
// otherwise every registered source in DefaultPriority is eligible.
//
// When the reference has no DOI, DOI-incapable sources stay eligible
// but the DOI-capable ones are consulted first: a search hit there can
// recover the DOI itself, which is the highest-value field to fill.
func (r *Registry) Select(q Query, requested []string) []string {
	allowed := make(map[string]bool, len(requested))
	for _, name := range requested {
		allowed[name] = true
	}

	var capable, rest []string
	for _, name := range priorityOrder(r) {
		if _, ok := r.sources[name]; !ok {
			continue
		}
		if len(requested) > 0 && !allowed[name] {
			continue
		}
		if q.DOI == "" && DOICapable(name) {
			capable = append(capable, name)
		} else {
			rest = append(rest, name)
		}
	}
	if q.DOI == "" {
		return append(capable, rest...)
	}
	return rest
}

// MergeOrder returns the given source names in merge priority order.
// Select may consult sources in a different order (DOI-capable ones
// first); field merging always follows priority.
func (r *Registry) MergeOrder(names []string) []string {
	rank := make(map[string]int)
	for i, name := range priorityOrder(r) {
		rank[name] = i
	}
	out := append([]string(nil), names...)
	sort.SliceStable(out, func(i, j int) bool { return rank[out[i]] < rank[out[j]] })
	return out
}

// priorityOrder lists the registry's sources in merge priority order:
// the configured override first when one is set, then the known
// defaults, then any custom registrations in registration order.
func priorityOrder(r *Registry) []string {
	seen := make(map[string]bool, len(DefaultPriority))
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, name := range r.priority {
		add(name)
	}
	for _, name := range DefaultPriority {
		add(name)
	}
	for _, name := range r.order {
		add(name)
	}
	return names
}
