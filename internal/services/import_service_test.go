package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pesa/internal/core"
	"pesa/internal/dictionary"
	"pesa/internal/storage"
)

func newTestImporter(t *testing.T) (*ImportService, *storage.SQLiteRepository) {
	t.Helper()
	repo := newTestRepo(t)
	resolver := dictionary.NewResolver(16, time.Minute)
	return NewImportService(repo, resolver, "KSh", 500, newTestLogger()), repo
}

func TestImportSMSEndToEnd(t *testing.T) {
	importer, repo := newTestImporter(t)
	ctx := context.Background()

	text := "QAA12B34CD confirmed. Ksh500.00 sent to Mary Mkulima on 5/6/24 at 1:15 pm. " +
		"QBB56C78DE confirmed. Ksh250.00 sent to John Juma on 6/6/24"

	report, err := importer.ImportSMS(ctx, text)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Complete)
	assert.Equal(t, 1, report.Incomplete)
	assert.Equal(t, 0, report.Excluded)
	assert.Empty(t, report.CurrencyChange)

	assert.EqualValues(t, 1, collectionCount(t, repo, core.CollectionExpenses))
	assert.EqualValues(t, 1, collectionCount(t, repo, core.CollectionFailed))

	// Only the complete record reaches the statistics.
	assert.True(t, statTotal(t, repo, "all").Equal(decimal.NewFromInt(500)))

	// The resolver fabricated a label from the recipient name.
	ledger, err := repo.Queries().ListExpensesByCollection(ctx, core.CollectionExpenses)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, "mary mkulima", ledger[0].Label)
}

func TestImportUsesDictionaryLabels(t *testing.T) {
	importer, repo := newTestImporter(t)
	ctx := context.Background()

	require.NoError(t, dictionary.SeedEmbedded(ctx, repo))

	text := "QAA12B34CD confirmed. Ksh1,250.00 paid to Naivas Supermarket on 5/6/24 at 1:15 pm"

	report, err := importer.ImportSMS(ctx, text)
	require.NoError(t, err)
	require.Equal(t, 1, report.Complete)

	ledger, err := repo.Queries().ListExpensesByCollection(ctx, core.CollectionExpenses)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, "groceries", ledger[0].Label)
	assert.True(t, statTotal(t, repo, "labels/groceries").Equal(decimal.NewFromInt(1250)))
}

func TestImportExclusionOverridesCompleteness(t *testing.T) {
	importer, repo := newTestImporter(t)
	ctx := context.Background()

	svc := NewExpenseService(repo, dictionary.NewResolver(16, time.Minute), newTestLogger())
	require.NoError(t, svc.ExcludeRecipient(ctx, "mary mkulima"))

	text := "QAA12B34CD confirmed. Ksh500.00 sent to Mary Mkulima on 5/6/24 at 1:15 pm"

	report, err := importer.ImportSMS(ctx, text)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Complete)
	assert.Equal(t, 1, report.Excluded)

	assert.EqualValues(t, 0, collectionCount(t, repo, core.CollectionExpenses))
	assert.EqualValues(t, 1, collectionCount(t, repo, core.CollectionExclusions))
	assert.EqualValues(t, 1, collectionCount(t, repo, core.ExclusionCollection("mary mkulima")))
	assert.True(t, statTotal(t, repo, "all").IsZero(), "excluded imports must not count")
}

func TestImportUnparseableTextIsNotAnError(t *testing.T) {
	importer, _ := newTestImporter(t)

	report, err := importer.ImportSMS(context.Background(), "nothing to see here")
	require.NoError(t, err)
	assert.True(t, report.Empty())
}

func TestImportCurrencyChangeSurfaces(t *testing.T) {
	importer, _ := newTestImporter(t)

	text := "QAA12B34CD confirmed. TSh500.00 sent to Mary Mkulima on 5/6/24 at 1:15 pm"

	report, err := importer.ImportSMS(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, "TSh", report.CurrencyChange)
	assert.Equal(t, 1, report.Complete)
}

func TestImportStatement(t *testing.T) {
	importer, repo := newTestImporter(t)
	ctx := context.Background()

	text := `QAA12B34CD 2024-06-05 13:15:02 Customer Transfer to Mary Mkulima completed 0.00 500.00
QAA12B34CD 2024-06-05 13:15:02 Customer Transfer Charge completed 0.00 7.00
`

	report, err := importer.ImportStatement(ctx, text)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Complete)
	assert.True(t, statTotal(t, repo, "all").Equal(decimal.RequireFromString("507")))
}

func TestImportRows(t *testing.T) {
	importer, repo := newTestImporter(t)
	ctx := context.Background()

	csv := strings.Join([]string{
		"date,recipient,amount,label",
		"2024-06-05,Mary Mkulima,500.00,gifts",
		"2024-06-06,John Juma,,",
	}, "\n")

	report, err := importer.ImportRows(ctx, strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Complete)
	assert.Equal(t, 1, report.Incomplete)
	assert.True(t, statTotal(t, repo, "labels/gifts").Equal(decimal.NewFromInt(500)))
}

func TestImportRowsPropagatesInputError(t *testing.T) {
	importer, _ := newTestImporter(t)

	_, err := importer.ImportRows(context.Background(), strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, core.IsInputError(err))
}

func TestImportPersistsAcrossBatchBoundaries(t *testing.T) {
	repo := newTestRepo(t)
	resolver := dictionary.NewResolver(16, time.Minute)
	importer := NewImportService(repo, resolver, "KSh", 2, newTestLogger())
	ctx := context.Background()

	csv := strings.Join([]string{
		"date,recipient,amount,label",
		"2024-06-01,Mary Mkulima,100.00,food",
		"2024-06-02,Mary Mkulima,200.00,food",
		"2024-06-03,Mary Mkulima,300.00,food",
		"2024-06-04,Mary Mkulima,400.00,food",
		"2024-06-05,Mary Mkulima,500.00,food",
	}, "\n")

	report, err := importer.ImportRows(ctx, strings.NewReader(csv))
	require.NoError(t, err)

	// Five records across three transactions of at most two each.
	assert.Equal(t, 5, report.Complete)
	assert.EqualValues(t, 5, collectionCount(t, repo, core.CollectionExpenses))
	assert.True(t, statTotal(t, repo, "all").Equal(decimal.NewFromInt(1500)))
}

func TestImportAssignsFreshIDs(t *testing.T) {
	importer, repo := newTestImporter(t)
	ctx := context.Background()

	text := "QAA12B34CD confirmed. Ksh500.00 sent to Mary Mkulima on 5/6/24 at 1:15 pm"

	_, err := importer.ImportSMS(ctx, text)
	require.NoError(t, err)
	_, err = importer.ImportSMS(ctx, text)
	require.NoError(t, err)

	// Same message imported twice yields two records with distinct IDs; the
	// reference code is not an identity.
	ledger, err := repo.Queries().ListExpensesByCollection(ctx, core.CollectionExpenses)
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	assert.NotEqual(t, ledger[0].ID, ledger[1].ID)
}
