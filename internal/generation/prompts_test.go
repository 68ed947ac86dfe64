package generation

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBuildPrompts_EmbedsBusinessIdea(t *testing.T) {
	genCtx := &GenerationContext{
		BusinessIdea: "A mobile app for dog walking services",
		PriorResults: map[string]json.RawMessage{},
	}

	system, user := BuildPrompts("market", genCtx)

	if system == "" {
		t.Error("expected non-empty system prompt")
	}
	if !strings.Contains(user, "BUSINESS IDEA:\nA mobile app for dog walking services") {
		t.Errorf("user prompt missing business idea:\n%s", user)
	}
}

func TestBuildPrompts_AnswersRenderedSorted(t *testing.T) {
	genCtx := &GenerationContext{
		BusinessIdea: "A subscription coffee service",
		Answers: map[string]string{
			"revenue_model":   "subscription",
			"budget":          "under $10k",
			"target_customer": "consumers",
		},
		PriorResults: map[string]json.RawMessage{},
	}

	_, user := BuildPrompts("market", genCtx)

	if !strings.Contains(user, "ADDITIONAL BUSINESS DETAILS:") {
		t.Fatalf("user prompt missing answers section:\n%s", user)
	}

	budgetIdx := strings.Index(user, "- budget: under $10k")
	revenueIdx := strings.Index(user, "- revenue_model: subscription")
	targetIdx := strings.Index(user, "- target_customer: consumers")
	if budgetIdx == -1 || revenueIdx == -1 || targetIdx == -1 {
		t.Fatalf("user prompt missing answer lines:\n%s", user)
	}
	if !(budgetIdx < revenueIdx && revenueIdx < targetIdx) {
		t.Error("answers not rendered in sorted key order")
	}
}

func TestBuildPrompts_NoAnswersOmitsSection(t *testing.T) {
	genCtx := &GenerationContext{
		BusinessIdea: "A subscription coffee service",
		PriorResults: map[string]json.RawMessage{},
	}

	_, user := BuildPrompts("market", genCtx)

	if strings.Contains(user, "ADDITIONAL BUSINESS DETAILS") {
		t.Error("answers section rendered with no answers")
	}
}

func TestBuildPrompts_EmbedsPriorStageOutput(t *testing.T) {
	market := json.RawMessage(`{"tam":{"value":"$4.2B","label":"US pet services"}}`)
	genCtx := &GenerationContext{
		BusinessIdea: "A mobile app for dog walking services",
		PriorResults: map[string]json.RawMessage{"market": market},
	}

	_, user := BuildPrompts("customers", genCtx)

	if !strings.Contains(user, "MARKET CONTEXT:") {
		t.Errorf("customers prompt missing market context label:\n%s", user)
	}
	if !strings.Contains(user, `"value": "$4.2B"`) {
		t.Errorf("customers prompt missing serialized market payload:\n%s", user)
	}
}

func TestBuildPrompts_MissingDependencySerializesEmpty(t *testing.T) {
	genCtx := &GenerationContext{
		BusinessIdea: "A mobile app for dog walking services",
		PriorResults: map[string]json.RawMessage{},
	}

	_, user := BuildPrompts("customers", genCtx)

	if !strings.Contains(user, "MARKET CONTEXT:\n{}") {
		t.Errorf("missing dependency should serialize as {}:\n%s", user)
	}
}

func TestBuildPrompts_NoFutureStageLeakage(t *testing.T) {
	// Fill PriorResults with every stage's output, then verify each stage's
	// prompt embeds only declared dependencies.
	prior := make(map[string]json.RawMessage)
	for _, stage := range DefaultRegistry().Stages() {
		prior[stage.ID] = json.RawMessage(`{"marker":"payload-` + stage.ID + `"}`)
	}

	genCtx := &GenerationContext{
		BusinessIdea: "A mobile app for dog walking services",
		PriorResults: prior,
	}

	for _, stage := range DefaultRegistry().Stages() {
		deps := StageDependencies(stage.ID)
		allowed := make(map[string]bool, len(deps))
		for _, dep := range deps {
			allowed[dep] = true
		}

		_, user := BuildPrompts(stage.ID, genCtx)
		for id := range prior {
			marker := "payload-" + id
			if allowed[id] {
				if !strings.Contains(user, marker) {
					t.Errorf("stage %q: declared dependency %q not embedded", stage.ID, id)
				}
			} else if strings.Contains(user, marker) {
				t.Errorf("stage %q: embeds %q which is not a declared dependency", stage.ID, id)
			}
		}
	}
}

func TestBuildPrompts_Deterministic(t *testing.T) {
	genCtx := &GenerationContext{
		BusinessIdea: "A subscription coffee service",
		Answers: map[string]string{
			"budget":        "under $10k",
			"revenue_model": "subscription",
		},
		PriorResults: map[string]json.RawMessage{
			"market": json.RawMessage(`{"tam":{"value":"$1B"}}`),
		},
	}

	system1, user1 := BuildPrompts("customers", genCtx)
	system2, user2 := BuildPrompts("customers", genCtx)

	if system1 != system2 || user1 != user2 {
		t.Error("identical inputs produced different prompts")
	}
}

func TestBuildPrompts_EveryStageHasTemplate(t *testing.T) {
	genCtx := &GenerationContext{
		BusinessIdea: "A subscription coffee service",
		PriorResults: map[string]json.RawMessage{},
	}

	for _, stage := range DefaultRegistry().Stages() {
		system, user := BuildPrompts(stage.ID, genCtx)
		if system == "" {
			t.Errorf("stage %q: empty system prompt", stage.ID)
		}
		if !strings.Contains(user, "Return JSON with this EXACT structure") {
			t.Errorf("stage %q: user prompt missing JSON structure contract", stage.ID)
		}
	}
}
