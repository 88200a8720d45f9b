package metrics

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/courseforge/internal/providers"
)

// DefaultCapacity is the number of metrics kept when none is configured.
const DefaultCapacity = 1000

// Recorder holds the most recent metrics in a fixed-size ring.
// It is safe for concurrent use.
type Recorder struct {
	mu       sync.RWMutex
	metrics  []Metric
	next     int
	full     bool
	recorded int
}

// NewRecorder creates a recorder that keeps the last capacity metrics.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{metrics: make([]Metric, capacity)}
}

// RecordOpts provides context for a metric recording.
type RecordOpts struct {
	Call       string
	PromptKey  string
	PromptHash string
}

// Record stores a single metric, evicting the oldest once full.
func (r *Recorder) Record(m Metric) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics[r.next] = m
	r.next = (r.next + 1) % len(r.metrics)
	if r.next == 0 {
		r.full = true
	}
	r.recorded++
}

// RecordLLMCall records metrics from a chat result. A nil result is ignored.
func (r *Recorder) RecordLLMCall(opts RecordOpts, result *providers.ChatResult) {
	if result == nil {
		return
	}

	r.Record(Metric{
		// Attribution
		RequestID:  result.RequestID,
		Call:       opts.Call,
		PromptKey:  opts.PromptKey,
		PromptHash: opts.PromptHash,

		// Provider info
		Provider: result.Provider,
		Model:    result.ModelUsed,

		// Tokens
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		TotalTokens:      result.TotalTokens,

		// Timing
		QueueSeconds:     result.QueueTime.Seconds(),
		ExecutionSeconds: result.ExecutionTime.Seconds(),
		TotalSeconds:     result.TotalTime.Seconds(),
		Attempts:         result.Attempts,

		// Status
		Success:   result.Success,
		ErrorType: result.ErrorType,
	})
}

// Recorded returns the number of metrics ever recorded, including evicted ones.
func (r *Recorder) Recorded() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.recorded
}

// snapshot returns the retained metrics, newest first.
func (r *Recorder) snapshot() []Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.next
	if r.full {
		n = len(r.metrics)
	}
	out := make([]Metric, 0, n)
	for i := 1; i <= n; i++ {
		idx := (r.next - i + len(r.metrics)) % len(r.metrics)
		out = append(out, r.metrics[idx])
	}
	return out
}
