// Package advice is the boundary to the external language-model service that
// turns recent transactions into financial advice.
package advice

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/finanza/finanza-api/internal/models"
)

// ErrUnavailable is returned when the provider cannot produce an answer.
var ErrUnavailable = errors.New("advice provider unavailable")

// MaxHistory is the number of most recent transactions included in a prompt.
const MaxHistory = 20

// SystemPrompt frames the assistant's role.
const SystemPrompt = `You are Finanza, a behavioral-economics money coach.
Your job: help the person manage their money better, with empathy,
clarity and strategy. Use simple, friendly language.`

// Provider answers a prompt with plain text.
type Provider interface {
	Advise(ctx context.Context, prompt string) (string, error)
}

// Unavailable is the provider used when none is configured. It always fails.
type Unavailable struct{}

// Advise returns ErrUnavailable.
func (Unavailable) Advise(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("%w: no provider configured", ErrUnavailable)
}

// FormatTransaction renders one history line as "<kind>: <amount> (<category>)".
func FormatTransaction(tx models.Transaction) string {
	return fmt.Sprintf("%s: %s (%s)", tx.Kind, tx.Amount.String(), tx.Category)
}

// RecentHistory returns at most MaxHistory transactions, newest first.
// txs is not modified.
func RecentHistory(txs []models.Transaction) []models.Transaction {
	recent := make([]models.Transaction, len(txs))
	copy(recent, txs)
	// Stable so equal timestamps keep reverse insertion order.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > MaxHistory {
		recent = recent[:MaxHistory]
	}
	return recent
}

// BuildPrompt assembles the system context, the recent history and the
// user's message into one prompt.
func BuildPrompt(message string, txs []models.Transaction) string {
	var b strings.Builder
	b.WriteString(SystemPrompt)
	b.WriteString("\n\nRecent transactions:\n")
	for _, tx := range RecentHistory(txs) {
		b.WriteString(FormatTransaction(tx))
		b.WriteByte('\n')
	}
	b.WriteString("\nUser: ")
	b.WriteString(message)
	return b.String()
}
