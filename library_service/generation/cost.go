package generation

import (
	"math"
	"strings"

	"pustaka/types"
)

// pricing is USD per 1M tokens for the handful of models worth estimating
// without a live price lookup.
var pricing = map[string]struct{ prompt, completion float64 }{
	"google/gemini-pro":     {0.125, 0.375},
	"openai/gpt-3.5-turbo":  {0.5, 1.5},
	"openai/gpt-4o":         {5.0, 15.0},
}

// EstimateCost prices a generation. Models tagged ":free" cost nothing;
// known models use the static table; anything else reports zero with
// is_free unset so the client can show "cost unknown".
func EstimateCost(model string, usage types.TokenUsage) types.CostEstimate {
	if strings.HasSuffix(model, ":free") {
		return types.CostEstimate{Currency: "USD", IsFree: true}
	}

	rates, ok := pricing[model]
	if !ok {
		return types.CostEstimate{Currency: "USD"}
	}

	total := float64(usage.PromptTokens)/1_000_000*rates.prompt +
		float64(usage.CompletionTokens)/1_000_000*rates.completion
	return types.CostEstimate{
		TotalUSD: math.Round(total*1e6) / 1e6,
		Currency: "USD",
		IsFree:   total == 0,
	}
}
