package metrics

import (
	"sort"
)

// Summary provides a summary of metrics for a filter.
type Summary struct {
	Count        int `json:"count"`
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`

	// Latency (seconds)
	LatencyP50 float64 `json:"latency_p50"`
	LatencyP95 float64 `json:"latency_p95"`
	LatencyP99 float64 `json:"latency_p99"`
	LatencyAvg float64 `json:"latency_avg"`
	LatencyMin float64 `json:"latency_min"`
	LatencyMax float64 `json:"latency_max"`

	// Token stats
	TotalPromptTokens     int     `json:"total_prompt_tokens"`
	TotalCompletionTokens int     `json:"total_completion_tokens"`
	TotalTokens           int     `json:"total_tokens"`
	AvgTotalTokens        float64 `json:"avg_total_tokens"`
}

// GetSummary returns a summary of metrics matching the filter.
func (r *Recorder) GetSummary(f Filter) *Summary {
	return summarize(r.List(f, 0))
}

// SummaryByCall returns summaries grouped by call shape.
func (r *Recorder) SummaryByCall(f Filter) map[string]*Summary {
	byCall := make(map[string][]Metric)
	for _, m := range r.List(f, 0) {
		byCall[m.Call] = append(byCall[m.Call], m)
	}

	result := make(map[string]*Summary, len(byCall))
	for call, metrics := range byCall {
		result[call] = summarize(metrics)
	}
	return result
}

func summarize(metrics []Metric) *Summary {
	s := &Summary{Count: len(metrics)}
	if len(metrics) == 0 {
		return s
	}

	// Collect latencies for percentile calculation
	var latencies []float64
	for _, m := range metrics {
		if m.Success {
			s.SuccessCount++
		} else {
			s.ErrorCount++
		}

		s.TotalPromptTokens += m.PromptTokens
		s.TotalCompletionTokens += m.CompletionTokens
		s.TotalTokens += m.TotalTokens

		if m.TotalSeconds > 0 {
			latencies = append(latencies, m.TotalSeconds)
		}
	}
	s.AvgTotalTokens = float64(s.TotalTokens) / float64(s.Count)

	if len(latencies) > 0 {
		sort.Float64s(latencies)

		s.LatencyMin = latencies[0]
		s.LatencyMax = latencies[len(latencies)-1]

		var sum float64
		for _, l := range latencies {
			sum += l
		}
		s.LatencyAvg = sum / float64(len(latencies))

		s.LatencyP50 = percentile(latencies, 50)
		s.LatencyP95 = percentile(latencies, 95)
		s.LatencyP99 = percentile(latencies, 99)
	}

	return s
}

// percentile calculates the p-th percentile from a sorted slice of values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	n := float64(len(sorted))
	idx := (p / 100.0) * (n - 1)

	// Interpolate between floor and ceil indices
	lower := int(idx)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
