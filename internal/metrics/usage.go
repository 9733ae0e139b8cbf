package metrics

import (
	"meal-planner/internal/shared"
)

// RecordMeta adds the token usage and latency of one agent run.
func RecordMeta(meta shared.AgentMeta) {
	if meta.Latency > 0 {
		LLMLatency.WithLabelValues(meta.AgentName).Observe(meta.Latency.Seconds())
	}
	if meta.Usage.PromptTokens == 0 && meta.Usage.CompletionTokens == 0 {
		return
	}
	model := meta.Usage.Model
	if model == "" {
		model = "unknown"
	}
	LLMTokens.WithLabelValues(meta.AgentName, model, "prompt").Add(float64(meta.Usage.PromptTokens))
	LLMTokens.WithLabelValues(meta.AgentName, model, "completion").Add(float64(meta.Usage.CompletionTokens))
}
