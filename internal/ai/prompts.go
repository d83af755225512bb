package ai

import (
	"fmt"
	"strings"

	"github.com/finchat/go-finance-chat-backend/internal/domain"
)

// RegularPrompt is the base system prompt for every turn.
const RegularPrompt = "You are a friendly assistant! Keep your responses concise and helpful."

// ArtifactsPrompt describes the document tools for tool-capable variants.
// The reasoning variant runs without tools and never sees it.
const ArtifactsPrompt = "You can create and update documents with the createDocument and " +
	"updateDocument tools. Use createDocument for substantial content (more than ten lines) " +
	"or when the user explicitly asks for a document; keep conversational answers in the chat. " +
	"Do not update a document right after creating it; wait for feedback or an explicit request."

// classifierPrompt instructs the aux model to answer with a bare boolean token.
const classifierPrompt = "You are a classifier. Determine whether the user's message is about " +
	"personal finances, spending, transactions, budgeting, or money management. " +
	"Respond with exactly TRUE or FALSE and nothing else."

// titlePrompt asks the aux model for a short chat title.
const titlePrompt = "Generate a short title (at most 80 characters) summarizing the user's message. " +
	"Do not use quotes or colons. Respond with the title only."

// BuildSystemPrompt assembles the system message for a turn. The reasoning
// variant gets the bare base prompt; other variants also get the artifacts
// instructions since they run with tools. When txContext is non-empty (the
// relevance classifier fired and the user has mirrored transactions) it is
// appended last.
func BuildSystemPrompt(reasoning bool, txContext string) string {
	prompt := RegularPrompt
	if !reasoning {
		prompt += "\n\n" + ArtifactsPrompt
	}
	if txContext != "" {
		prompt += "\n\n" + txContext
	}
	return prompt
}

// TransactionContext renders mirrored transactions as a context block for the
// system prompt. Returns "" for an empty slice so callers can skip injection.
func TransactionContext(txs []domain.Transaction) string {
	if len(txs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("User's recent transactions:")
	for _, tx := range txs {
		category := tx.Category
		if category == "" {
			category = "Uncategorized"
		}
		fmt.Fprintf(&b, "\n- %s: $%.2f at %s (%s)", tx.Date, tx.Amount, tx.Name, category)
	}
	return b.String()
}
