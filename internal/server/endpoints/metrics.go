package endpoints

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/courseforge/internal/api"
	"github.com/jackzampolin/courseforge/internal/metrics"
	"github.com/jackzampolin/courseforge/internal/svcctx"
)

// MetricsListResponse contains recent model call metrics.
type MetricsListResponse struct {
	Metrics []metrics.Metric `json:"metrics"`
	Count   int              `json:"count"`
}

// MetricsSummaryResponse contains aggregate usage, overall and per call shape.
type MetricsSummaryResponse struct {
	Recorded int                         `json:"recorded"`
	Overall  *metrics.Summary            `json:"overall"`
	ByCall   map[string]*metrics.Summary `json:"by_call"`
	ByModel  map[string]int              `json:"tokens_by_model"`
}

// filterFromQuery reads call, provider, model and success query parameters.
func filterFromQuery(q url.Values) (metrics.Filter, error) {
	f := metrics.Filter{
		Call:     q.Get("call"),
		Provider: q.Get("provider"),
		Model:    q.Get("model"),
	}
	if v := q.Get("success"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, err
		}
		f.Success = &b
	}
	return f, nil
}

// ListMetricsEndpoint handles GET /metrics.
type ListMetricsEndpoint struct{}

func (e *ListMetricsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/metrics", e.handler
}

func (e *ListMetricsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List model call metrics
//	@Description	Recent model calls, newest first
//	@Tags			metrics
//	@Produce		json
//	@Param			call		query		string	false	"Filter by call (classify, generate, expand)"
//	@Param			provider	query		string	false	"Filter by provider"
//	@Param			model		query		string	false	"Filter by model"
//	@Param			success		query		bool	false	"Filter by outcome"
//	@Param			limit		query		int		false	"Maximum results (default 100)"
//	@Success		200			{object}	MetricsListResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Router			/metrics [get]
func (e *ListMetricsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	recorder := svcctx.MetricsFrom(r.Context())
	if recorder == nil {
		writeError(w, http.StatusInternalServerError, "metrics not available")
		return
	}

	filter, err := filterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid success filter")
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	list := recorder.List(filter, limit)
	if list == nil {
		list = []metrics.Metric{}
	}
	writeJSON(w, http.StatusOK, MetricsListResponse{Metrics: list, Count: len(list)})
}

func (e *ListMetricsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var call string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent model calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if call != "" {
				q.Set("call", call)
			}
			q.Set("limit", strconv.Itoa(limit))

			client := api.NewClient(getServerURL())
			var resp MetricsListResponse
			if err := client.Get(cmd.Context(), "/metrics?"+q.Encode(), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&call, "call", "", "Filter by call (classify, generate, expand)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum results")
	return cmd
}

// MetricsSummaryEndpoint handles GET /metrics/summary.
type MetricsSummaryEndpoint struct{}

func (e *MetricsSummaryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/metrics/summary", e.handler
}

func (e *MetricsSummaryEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Summarize model call metrics
//	@Description	Token usage and latency percentiles, overall and per call
//	@Tags			metrics
//	@Produce		json
//	@Param			provider	query		string	false	"Filter by provider"
//	@Param			model		query		string	false	"Filter by model"
//	@Success		200			{object}	MetricsSummaryResponse
//	@Failure		500			{object}	ErrorResponse
//	@Router			/metrics/summary [get]
func (e *MetricsSummaryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	recorder := svcctx.MetricsFrom(r.Context())
	if recorder == nil {
		writeError(w, http.StatusInternalServerError, "metrics not available")
		return
	}

	filter, err := filterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid success filter")
		return
	}

	writeJSON(w, http.StatusOK, MetricsSummaryResponse{
		Recorded: recorder.Recorded(),
		Overall:  recorder.GetSummary(filter),
		ByCall:   recorder.SummaryByCall(filter),
		ByModel:  recorder.TokensByModel(filter),
	})
}

func (e *MetricsSummaryEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Summarize model call usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp MetricsSummaryResponse
			if err := client.Get(cmd.Context(), "/metrics/summary", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// MetricsCommands returns endpoints for metrics operations.
func MetricsCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListMetricsEndpoint{},
		&MetricsSummaryEndpoint{},
	}
}
