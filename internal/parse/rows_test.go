package parse

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pesa/internal/core"
)

func TestRowsParser_HeaderAddressedColumns(t *testing.T) {
	csv := strings.Join([]string{
		"Date,Recipient,Amount,Label,Ref",
		"2024-06-05,Mary Mkulima,500.00,gifts,QAA12B34CD",
		"2024-06-06 09:05:00,Naivas Supermarket,1250,groceries,QBB56C78DE",
	}, "\n")

	result, err := NewRowsParser("KSh").Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, result.Candidates, 2)

	first := result.Candidates[0]
	assert.Equal(t, "mary mkulima", first.Recipient)
	assert.Equal(t, "gifts", first.Label)
	assert.Equal(t, "QAA12B34CD", first.Ref)
	assert.True(t, first.Amount.Decimal.Equal(decimal.RequireFromString("500.00")))
	assert.Equal(t, time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "KSh", first.Currency)

	second := result.Candidates[1]
	assert.Equal(t, time.Date(2024, 6, 6, 9, 5, 0, 0, time.UTC), second.Date)
}

func TestRowsParser_SkipsUnusableRows(t *testing.T) {
	csv := strings.Join([]string{
		"date,recipient,amount",
		",,",
		"not-a-date,,not-a-number",
		"2024-06-05,Mary Mkulima,500.00",
	}, "\n")

	result, err := NewRowsParser("KSh").Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Len(t, result.Candidates, 1)
}

func TestRowsParser_CurrencyColumnSignalsChange(t *testing.T) {
	csv := "recipient,amount,currency\nMary Mkulima,500.00,TSh\n"

	result, err := NewRowsParser("KSh").Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "TSh", result.Candidates[0].Currency)
	assert.Equal(t, "TSh", result.CurrencyChange)
}

func TestRowsParser_EmptyInputIsUserError(t *testing.T) {
	_, err := NewRowsParser("KSh").Parse(strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, core.IsInputError(err))
}

func TestRowsParser_UnknownColumnsIgnored(t *testing.T) {
	csv := "balance,notes,recipient\n900.00,hello,Mary Mkulima\n"

	result, err := NewRowsParser("KSh").Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	e := result.Candidates[0]
	assert.Equal(t, "mary mkulima", e.Recipient)
	assert.False(t, e.Amount.Valid)
}
