package parse

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pesa/internal/core"
)

// Recognized column names for row-oriented imports.
const (
	colLabel     = "label"
	colRecipient = "recipient"
	colAmount    = "amount"
	colRef       = "ref"
	colReceipt   = "receipt"
	colDate      = "date"
	colCurrency  = "currency"
)

var rowDateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// RowsParser builds candidate expenses from a spreadsheet export, one row
// per record, addressed by header column names.
type RowsParser struct {
	currency string
}

func NewRowsParser(currency string) *RowsParser {
	return &RowsParser{currency: currency}
}

// Parse reads header-addressed rows. Rows contributing zero usable fields are
// skipped entirely, not counted. A malformed file (no readable header) is a
// user-input error.
func (p *RowsParser) Parse(r io.Reader) (Result, error) {
	var result Result

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return result, core.InputErrorf("read import header: %v", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, core.InputErrorf("read import row: %v", err)
		}

		candidate, usable, observed := p.parseRow(columns, record)
		if usable == 0 {
			continue
		}
		if signal := currencySignal(p.currency, observed); signal != "" {
			result.CurrencyChange = signal
		}
		result.Candidates = append(result.Candidates, candidate)
	}

	return result, nil
}

func (p *RowsParser) parseRow(columns map[string]int, record []string) (core.Expense, int, string) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	usable := 0
	e := core.Expense{Currency: p.currency}

	if v := field(colLabel); v != "" {
		e.Label = v
		usable++
	}
	if v := field(colRecipient); v != "" {
		e.Recipient = core.NormalizeRecipient(v)
		usable++
	}
	if v := field(colRef); v != "" {
		e.Ref = v
		usable++
	}
	if v := field(colReceipt); v != "" {
		e.Receipt = v
		usable++
	}

	observed := ""
	if v := field(colCurrency); v != "" {
		if canonical, ok := canonicalCurrency[strings.ToLower(v)]; ok {
			e.Currency = canonical
			observed = canonical
			usable++
		}
	}

	if v := field(colAmount); v != "" {
		if amount, err := parseAmount(v); err == nil {
			e.Amount = decimal.NullDecimal{Decimal: amount, Valid: true}
			usable++
		}
	}

	if v := field(colDate); v != "" {
		for _, layout := range rowDateLayouts {
			if date, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
				e.Date = date
				usable++
				break
			}
		}
	}

	return e, usable, observed
}
