package generation

import (
	"testing"

	"pustaka/types"
)

func TestEstimateCostFreeModel(t *testing.T) {
	cost := EstimateCost("google/gemini-2.0-flash-exp:free", types.TokenUsage{
		PromptTokens: 500, CompletionTokens: 300, TotalTokens: 800,
	})
	if !cost.IsFree || cost.TotalUSD != 0 {
		t.Errorf("models tagged :free must cost nothing, got %+v", cost)
	}
}

func TestEstimateCostKnownModel(t *testing.T) {
	cost := EstimateCost("openai/gpt-4o", types.TokenUsage{
		PromptTokens: 1_000_000, CompletionTokens: 1_000_000,
	})
	if cost.IsFree {
		t.Error("paid model should not be free")
	}
	if cost.TotalUSD != 20.0 {
		t.Errorf("expected 5 + 15 USD, got %v", cost.TotalUSD)
	}
	if cost.Currency != "USD" {
		t.Errorf("unexpected currency %q", cost.Currency)
	}
}

func TestEstimateCostUnknownModel(t *testing.T) {
	cost := EstimateCost("someone/some-new-model", types.TokenUsage{PromptTokens: 100})
	if cost.IsFree {
		t.Error("unknown model must not be reported as free")
	}
	if cost.TotalUSD != 0 {
		t.Errorf("unknown model has no estimate, got %v", cost.TotalUSD)
	}
}
