package metrics

// TokensByModel returns total tokens per model.
func (r *Recorder) TokensByModel(f Filter) map[string]int {
	return r.tokensBy(f, func(m Metric) string { return m.Model })
}

// TokensByProvider returns total tokens per provider.
func (r *Recorder) TokensByProvider(f Filter) map[string]int {
	return r.tokensBy(f, func(m Metric) string { return m.Provider })
}

// TokensByCall returns total tokens per call shape.
func (r *Recorder) TokensByCall(f Filter) map[string]int {
	return r.tokensBy(f, func(m Metric) string { return m.Call })
}

func (r *Recorder) tokensBy(f Filter, key func(Metric) string) map[string]int {
	breakdown := make(map[string]int)
	for _, m := range r.List(f, 0) {
		breakdown[key(m)] += m.TotalTokens
	}
	return breakdown
}
