package ai

import (
	"strings"
	"testing"

	"github.com/finchat/go-finance-chat-backend/internal/domain"
)

func TestBuildSystemPrompt_VariantSelection(t *testing.T) {
	// Reasoning runs without tools, so it gets the bare base prompt.
	if got := BuildSystemPrompt(true, ""); got != RegularPrompt {
		t.Fatalf("reasoning: expected bare base prompt, got %q", got)
	}

	// Tool-capable variants also get the artifacts instructions.
	got := BuildSystemPrompt(false, "")
	if !strings.HasPrefix(got, RegularPrompt) || !strings.Contains(got, ArtifactsPrompt) {
		t.Fatalf("tool variant prompt wrong: %q", got)
	}
}

func TestBuildSystemPrompt_AppendsContext(t *testing.T) {
	txContext := "User's recent transactions:\n- 2025-03-10: $4.50 at Coffee (Food)"

	got := BuildSystemPrompt(false, txContext)
	if !strings.HasPrefix(got, RegularPrompt) {
		t.Fatalf("base prompt missing: %q", got)
	}
	if !strings.HasSuffix(got, txContext) {
		t.Fatalf("context must come last: %q", got)
	}

	// The reasoning variant still receives injected context.
	got = BuildSystemPrompt(true, txContext)
	if got != RegularPrompt+"\n\n"+txContext {
		t.Fatalf("reasoning with context wrong: %q", got)
	}
}

func TestTransactionContext_EmptyIsEmpty(t *testing.T) {
	if got := TransactionContext(nil); got != "" {
		t.Fatalf("expected empty context, got %q", got)
	}
}

func TestTransactionContext_FormatsLines(t *testing.T) {
	txs := []domain.Transaction{
		{Date: "2025-03-10", Amount: 4.5, Name: "Coffee", Category: "Food and Drink"},
		{Date: "2025-03-11", Amount: 12, Name: "Lunch"},
	}
	got := TransactionContext(txs)
	if !strings.Contains(got, "- 2025-03-10: $4.50 at Coffee (Food and Drink)") {
		t.Fatalf("categorized line wrong:\n%s", got)
	}
	if !strings.Contains(got, "- 2025-03-11: $12.00 at Lunch (Uncategorized)") {
		t.Fatalf("uncategorized fallback wrong:\n%s", got)
	}
	if !strings.HasPrefix(got, "User's recent transactions:") {
		t.Fatalf("header missing:\n%s", got)
	}
}
