package metrics

import "time"

// Filter specifies query filters. Zero fields match everything.
type Filter struct {
	Call     string
	Provider string
	Model    string
	After    time.Time
	Before   time.Time
	Success  *bool // nil = any, true = success only, false = errors only
}

func (f Filter) matches(m Metric) bool {
	if f.Call != "" && m.Call != f.Call {
		return false
	}
	if f.Provider != "" && m.Provider != f.Provider {
		return false
	}
	if f.Model != "" && m.Model != f.Model {
		return false
	}
	if !f.After.IsZero() && !m.CreatedAt.After(f.After) {
		return false
	}
	if !f.Before.IsZero() && !m.CreatedAt.Before(f.Before) {
		return false
	}
	if f.Success != nil && m.Success != *f.Success {
		return false
	}
	return true
}

// List returns metrics matching the filter, newest first. A limit of zero
// returns every match.
func (r *Recorder) List(f Filter, limit int) []Metric {
	var metrics []Metric
	for _, m := range r.snapshot() {
		if limit > 0 && len(metrics) >= limit {
			break
		}
		if f.matches(m) {
			metrics = append(metrics, m)
		}
	}
	return metrics
}
