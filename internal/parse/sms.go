package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pesa/internal/core"
)

// airtimeMerchant is the recipient recorded for airtime purchases, which
// carry no recipient of their own in the message template.
const airtimeMerchant = "safaricom"

var (
	confirmedPattern = regexp.MustCompile(`(?i)confirmed`)
	refPattern       = regexp.MustCompile(`(?:^|[^A-Z0-9])([A-Z0-9]{10})$`)
	digitPattern     = regexp.MustCompile(`[0-9]`)

	verbPattern      = regexp.MustCompile(`(?i)sent to|paid to|you bought|withdraw`)
	toRecipient      = regexp.MustCompile(`(?i)\bto (.+?) on\b`)
	fromRecipient    = regexp.MustCompile(`(?i)\bfrom (.+?) new\b`)
	airtimePattern   = regexp.MustCompile(`(?i)you bought.*airtime`)
	costPattern      = regexp.MustCompile(`(?i)transaction cost,?\s*(?:KSh|TSh|MT|FC|GH₵|LE|Br)?\.?\s?([0-9][0-9,]*(?:\.[0-9]{2})?)`)
	datePattern      = regexp.MustCompile(`(?i)\bon (\d{1,2})/(\d{1,2})/(\d{2,4})`)
	timePattern      = regexp.MustCompile(`(?i)\bat (\d{1,2}):(\d{2})\s?(am|pm)`)
)

// SMSParser extracts candidate expenses from a pasted block of concatenated
// transaction messages.
type SMSParser struct {
	currency string
}

func NewSMSParser(currency string) *SMSParser {
	return &SMSParser{currency: currency}
}

// Parse splits the raw block on the word "confirmed" (the structural anchor
// of the message template), reassembles one normalized line per reference
// code, and extracts fields from each. Segments without a valid reference
// shape are boilerplate between real messages and are dropped silently.
func (p *SMSParser) Parse(text string) Result {
	var result Result

	segments := confirmedPattern.Split(text, -1)
	for i := 0; i < len(segments)-1; i++ {
		ref, ok := trailingRef(segments[i])
		if !ok {
			continue
		}

		// Reassemble the one-line message this segment pair came from: the
		// reference, the anchor word, and the next segment minus its own
		// trailing reference.
		message := ref + " confirmed " + strings.TrimSpace(stripTrailingRef(segments[i+1]))

		candidate, observed, ok := p.extract(message, ref)
		if !ok {
			continue
		}
		if signal := currencySignal(p.currency, observed); signal != "" {
			result.CurrencyChange = signal
		}
		result.Candidates = append(result.Candidates, candidate)
	}

	return result
}

// trailingRef inspects the trailing ~11 characters of a segment for a
// reference-code shape: exactly 10 uppercase letters and digits with at
// least one digit.
func trailingRef(segment string) (string, bool) {
	s := strings.TrimRight(segment, " .\t\r\n")
	tail := s
	if len(tail) > 11 {
		tail = tail[len(tail)-11:]
	}
	m := refPattern.FindStringSubmatch(strings.TrimSpace(tail))
	if m == nil {
		return "", false
	}
	if !digitPattern.MatchString(m[1]) {
		return "", false
	}
	return m[1], true
}

// stripTrailingRef removes the trailing reference block from a segment, when
// present. The last segment of a block usually has none.
func stripTrailingRef(segment string) string {
	if _, ok := trailingRef(segment); !ok {
		return segment
	}
	s := strings.TrimRight(segment, " .\t\r\n")
	if len(s) <= 11 {
		return ""
	}
	return s[:len(s)-11]
}

// extract pulls the fields out of one normalized message line. Messages
// without a recognized transaction verb are not transactions at all and are
// dropped entirely, not counted as incomplete.
func (p *SMSParser) extract(message, ref string) (core.Expense, string, bool) {
	if !verbPattern.MatchString(message) {
		return core.Expense{}, "", false
	}

	e := core.Expense{
		Ref:     ref,
		Receipt: message,
	}

	e.Recipient = extractRecipient(message)

	if cur, amount, ok := extractAmount(message); ok {
		// A separate transaction-cost clause is part of the total cost.
		if m := costPattern.FindStringSubmatch(message); m != nil {
			if cost, err := parseAmount(m[1]); err == nil {
				amount = amount.Add(cost)
			}
		}
		e.Amount = decimal.NullDecimal{Decimal: amount, Valid: true}
		e.Currency = cur
	}

	e.Date = extractTimestamp(message)

	return e, e.Currency, true
}

func extractRecipient(message string) string {
	if m := toRecipient.FindStringSubmatch(message); m != nil {
		return core.NormalizeRecipient(m[1])
	}
	if m := fromRecipient.FindStringSubmatch(message); m != nil {
		return core.NormalizeRecipient(m[1])
	}
	if airtimePattern.MatchString(message) {
		return airtimeMerchant
	}
	return ""
}

// extractTimestamp combines the `on d/m/yy` and `at h:mm am|pm` clauses into
// a single UTC timestamp. If either clause is missing or malformed the
// timestamp is absent; the record is then completed manually.
func extractTimestamp(message string) time.Time {
	dm := datePattern.FindStringSubmatch(message)
	tm := timePattern.FindStringSubmatch(message)
	if dm == nil || tm == nil {
		return time.Time{}
	}

	day := atoi(dm[1])
	month := atoi(dm[2])
	yearText := dm[3]
	if len(yearText) == 2 {
		yearText = "20" + yearText
	}
	year := atoi(yearText)

	hour := atoi(tm[1])
	minute := atoi(tm[2])
	meridiem := strings.ToLower(tm[3])
	if meridiem == "pm" && hour != 12 {
		hour += 12
	}
	if meridiem == "am" && hour == 12 {
		hour = 0
	}

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}
	}

	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
