// Package parse turns raw transaction text into candidate expense records.
// Three inputs are handled: pasted SMS blocks, text extracted from PDF
// statements, and row-oriented CSV exports. Parsing is forgiving by design:
// noise is dropped silently, partially extracted records are kept and later
// routed to the failed bucket for manual completion, and an unparseable blob
// simply yields no candidates.
package parse

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"pesa/internal/core"
)

// Currency display tokens matched literally in message text. Amounts outside
// this set do not extract.
var currencyTokens = []string{"KSh", "TSh", "MT", "FC", "GH₵", "LE", "Br"}

var canonicalCurrency = func() map[string]string {
	m := make(map[string]string, len(currencyTokens))
	for _, t := range currencyTokens {
		m[strings.ToLower(t)] = t
	}
	return m
}()

// Result is a parse pass over one input: the candidate records, still
// without IDs or bucket routing, plus the non-fatal currency-change signal.
type Result struct {
	Candidates []core.Expense
	// CurrencyChange is the observed token when it differs from the
	// configured currency; empty otherwise. Surfaced to the caller, never
	// auto-applied.
	CurrencyChange string
}

var amountPattern = regexp.MustCompile(`(?i)(KSh|TSh|MT|FC|GH₵|LE|Br)\.?\s?([0-9][0-9,]*(?:\.[0-9]{2})?)`)

// extractAmount finds the first currency-prefixed amount in the text.
// Returns the canonical currency token and the parsed value.
func extractAmount(text string) (string, decimal.Decimal, bool) {
	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return "", decimal.Zero, false
	}
	amount, err := parseAmount(m[2])
	if err != nil {
		return "", decimal.Zero, false
	}
	return canonicalCurrency[strings.ToLower(m[1])], amount, true
}

func parseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
}

// currencySignal returns the observed token when it differs from the
// configured currency.
func currencySignal(configured, observed string) string {
	if observed != "" && observed != configured {
		return observed
	}
	return ""
}
