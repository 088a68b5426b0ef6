package parse

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementParser_Receipts(t *testing.T) {
	text := `Receipt No. Completion Time Details Transaction Status Paid In Withdrawn
QAA12B34CD 2024-06-05 13:15:02 Customer Transfer to Mary Mkulima completed 0.00 500.00
QBB56C78DE 2024-06-06 09:05:11 Pay Bill to KPLC PREPAID completed 0.00 1,250.00
`

	result := NewStatementParser("KSh").Parse(text)

	require.Len(t, result.Candidates, 2)

	first := result.Candidates[0]
	assert.Equal(t, "QAA12B34CD", first.Ref)
	assert.Equal(t, "mary mkulima", first.Recipient)
	require.True(t, first.Amount.Valid)
	assert.True(t, first.Amount.Decimal.Equal(decimal.RequireFromString("500.00")))
	assert.Equal(t, time.Date(2024, 6, 5, 13, 15, 2, 0, time.UTC), first.Date)
	assert.Equal(t, "KSh", first.Currency)
	assert.True(t, first.Complete())

	second := result.Candidates[1]
	assert.Equal(t, "kplc prepaid", second.Recipient)
	assert.True(t, second.Amount.Decimal.Equal(decimal.RequireFromString("1250.00")))
}

func TestStatementParser_ChargeMergesIntoBase(t *testing.T) {
	text := `QAA12B34CD 2024-06-05 13:15:02 Customer Transfer to Mary Mkulima completed 0.00 500.00
QAA12B34CD 2024-06-05 13:15:02 Customer Transfer Charge completed 0.00 7.00
`

	result := NewStatementParser("KSh").Parse(text)

	require.Len(t, result.Candidates, 1)
	e := result.Candidates[0]
	require.True(t, e.Amount.Valid)
	assert.True(t, e.Amount.Decimal.Equal(decimal.RequireFromString("507.00")), "got %s", e.Amount.Decimal)
	assert.Contains(t, e.Receipt, "transaction cost 7")
}

func TestStatementParser_ChargeBeforeBaseStaysSeparate(t *testing.T) {
	// Addendum lines are merged only into a base already seen. A charge
	// arriving first stands alone rather than merging backwards.
	text := `QAA12B34CD 2024-06-05 13:15:02 Customer Transfer Charge completed 0.00 7.00
QAA12B34CD 2024-06-05 13:15:02 Customer Transfer to Mary Mkulima completed 0.00 500.00
`

	result := NewStatementParser("KSh").Parse(text)

	require.Len(t, result.Candidates, 2)
	assert.True(t, result.Candidates[0].Amount.Decimal.Equal(decimal.RequireFromString("7.00")))
	assert.True(t, result.Candidates[1].Amount.Decimal.Equal(decimal.RequireFromString("500.00")))
}

func TestStatementParser_PaidInAmount(t *testing.T) {
	text := "QCC90D12EF 2024-06-07 08:00:00 Funds received from John Juma completed 300.00 0.00\n"

	result := NewStatementParser("KSh").Parse(text)

	require.Len(t, result.Candidates, 1)
	e := result.Candidates[0]
	assert.Equal(t, "john juma", e.Recipient)
	assert.True(t, e.Amount.Decimal.Equal(decimal.RequireFromString("300.00")))
}

func TestStatementParser_NegativeWithdrawnRecordedAsPositive(t *testing.T) {
	text := "QDD34E56FG 2024-06-08 10:30:00 Pay Bill to Zuku Internet completed 0.00 -2,999.00\n"

	result := NewStatementParser("KSh").Parse(text)

	require.Len(t, result.Candidates, 1)
	assert.True(t, result.Candidates[0].Amount.Decimal.Equal(decimal.RequireFromString("2999.00")))
}

func TestStatementParser_NoiseYieldsNothing(t *testing.T) {
	result := NewStatementParser("KSh").Parse("Opening balance 1,000.00\nClosing balance 2,000.00\n")
	assert.Empty(t, result.Candidates)
	assert.Empty(t, result.CurrencyChange)
}
