package parse

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pesa/internal/core"
)

var (
	// One receipt per statement line: reference, completion timestamp, free
	// text details, the word "completed", then the paid-in and withdrawn
	// amount tokens.
	receiptPattern = regexp.MustCompile(`(?im)([A-Z0-9]{10})\s+(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\s+(.+?)\s+completed\s+(-?[0-9][0-9,]*(?:\.[0-9]+)?)\s+(-?[0-9][0-9,]*(?:\.[0-9]+)?)`)

	chargePattern = regexp.MustCompile(`(?i)charge`)

	detailsToRecipient   = regexp.MustCompile(`(?i)\bto\s+(.+)$`)
	detailsFromRecipient = regexp.MustCompile(`(?i)\bfrom\s+(.+)$`)
)

const statementTimeLayout = "2006-01-02 15:04:05"

// StatementParser extracts candidate expenses from the text of an account
// statement (PDF text extraction happens upstream; this consumes the result).
type StatementParser struct {
	currency string
}

func NewStatementParser(currency string) *StatementParser {
	return &StatementParser{currency: currency}
}

// Parse locates receipts line by line and merges charge addendum lines into
// the base transaction sharing their reference code. The addendum is assumed
// to follow its base transaction; a charge line arriving first becomes its
// own candidate instead of merging backwards. That ordering assumption is
// deliberate and covered by a test.
func (p *StatementParser) Parse(text string) Result {
	var result Result

	// Index of the base candidate per reference, for addendum merging.
	baseByRef := make(map[string]int)

	for _, m := range receiptPattern.FindAllStringSubmatch(text, -1) {
		ref, timestamp, details := m[1], m[2], strings.TrimSpace(m[3])

		amount, ok := statementAmount(m[4], m[5])
		if !ok {
			continue
		}

		if idx, seen := baseByRef[ref]; seen && chargePattern.MatchString(details) {
			// Transaction cost addendum: fold the charge into the base
			// amount and note it on the receipt text.
			base := &result.Candidates[idx]
			if base.Amount.Valid {
				base.Amount.Decimal = base.Amount.Decimal.Add(amount)
			} else {
				base.Amount = decimal.NullDecimal{Decimal: amount, Valid: true}
			}
			base.Receipt += " transaction cost " + amount.String()
			continue
		}

		date, _ := time.ParseInLocation(statementTimeLayout, timestamp, time.UTC)

		candidate := core.Expense{
			Ref:       ref,
			Recipient: statementRecipient(details),
			Amount:    decimal.NullDecimal{Decimal: amount, Valid: true},
			Currency:  p.currency,
			Date:      date,
			Receipt:   ref + " " + timestamp + " " + details,
		}

		baseByRef[ref] = len(result.Candidates)
		result.Candidates = append(result.Candidates, candidate)
	}

	return result
}

// statementAmount picks the transaction amount out of the paid-in and
// withdrawn tokens: the first non-zero one, as a positive value.
func statementAmount(paidIn, withdrawn string) (decimal.Decimal, bool) {
	for _, tok := range []string{paidIn, withdrawn} {
		amount, err := parseAmount(tok)
		if err != nil {
			continue
		}
		if !amount.IsZero() {
			return amount.Abs(), true
		}
	}
	return decimal.Zero, false
}

func statementRecipient(details string) string {
	if m := detailsToRecipient.FindStringSubmatch(details); m != nil {
		return core.NormalizeRecipient(m[1])
	}
	if m := detailsFromRecipient.FindStringSubmatch(details); m != nil {
		return core.NormalizeRecipient(m[1])
	}
	return ""
}
