// internal/analysis/summary.go
// Package: analysis
package analysis

import (
	"sort"

	"github.com/mwiater/lmbench/internal/results"
	"github.com/mwiater/lmbench/internal/stats"
)

// Summary is the end-of-run report.
type Summary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Timeouts   int `json:"timeouts"`

	// Averages over successful records.
	AvgElapsedSeconds float64 `json:"avg_elapsed_seconds"`
	AvgPromptChars    float64 `json:"avg_prompt_chars"`
	AvgResponseChars  float64 `json:"avg_response_chars"`

	// AvgTotalTokens is set when at least one success reported tokens.
	AvgTotalTokens float64 `json:"avg_total_tokens"`
	HasTokens      bool    `json:"has_tokens"`
}

// Summarize computes the run report. Failed counts every non-success,
// timeouts included.
func Summarize(records []results.Record) Summary {
	s := Summary{Total: len(records)}
	var elapsed, prompt, response, tokens []float64
	for _, r := range records {
		if !r.Status.IsSuccess() {
			s.Failed++
			if r.Status.IsTimeout() {
				s.Timeouts++
			}
			continue
		}
		s.Successful++
		elapsed = append(elapsed, r.ElapsedSeconds)
		prompt = append(prompt, float64(r.PromptLengthChars))
		response = append(response, float64(r.ResponseLengthChars))
		if r.TotalTokens != nil {
			tokens = append(tokens, float64(*r.TotalTokens))
		}
	}

	s.AvgElapsedSeconds = stats.Mean(elapsed)
	s.AvgPromptChars = stats.Mean(prompt)
	s.AvgResponseChars = stats.Mean(response)
	if len(tokens) > 0 {
		s.HasTokens = true
		s.AvgTotalTokens = stats.Mean(tokens)
	}
	return s
}

// ModelSummary aggregates per-model latency and throughput.
type ModelSummary struct {
	Model      string `json:"model"`
	Requests   int    `json:"requests"`
	Successful int    `json:"successful"`

	// p50/p95 of elapsed seconds over successful requests
	ElapsedP50 float64 `json:"elapsed_p50_seconds"`
	ElapsedP95 float64 `json:"elapsed_p95_seconds"`

	// Mean +/- std of completion tokens per second
	TokensPerSecMean float64 `json:"tokens_per_sec_mean"`
	TokensPerSecStd  float64 `json:"tokens_per_sec_std"`
}

// ByModel builds one summary per model, sorted by model name.
func ByModel(records []results.Record) []ModelSummary {
	byModel := map[string][]results.Record{}
	for _, r := range records {
		byModel[r.Model] = append(byModel[r.Model], r)
	}

	out := make([]ModelSummary, 0, len(byModel))
	for m, rows := range byModel {
		var elapsed, tps []float64
		ms := ModelSummary{Model: m, Requests: len(rows)}

		for _, r := range rows {
			if !r.Status.IsSuccess() {
				continue
			}
			ms.Successful++
			elapsed = append(elapsed, r.ElapsedSeconds)
			if r.CompletionTokens != nil && r.ElapsedSeconds > 0 {
				tps = append(tps, float64(*r.CompletionTokens)/r.ElapsedSeconds)
			}
		}

		ms.ElapsedP50 = stats.Quantile(elapsed, 0.50)
		ms.ElapsedP95 = stats.Quantile(elapsed, 0.95)
		if len(tps) > 0 {
			ms.TokensPerSecMean, ms.TokensPerSecStd = stats.MeanStd(tps)
		}
		out = append(out, ms)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}
