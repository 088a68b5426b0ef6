package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"pesa/internal/budget"
	"pesa/internal/cli"
	"pesa/internal/config"
	"pesa/internal/core"
	"pesa/internal/dictionary"
	"pesa/internal/exclusion"
	"pesa/internal/log"
	"pesa/internal/parse"
	"pesa/internal/services"
	"pesa/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, _ := cli.GracefulShutdown(logger, 10*time.Second, nil)

	if err := seedDictionary(ctx, repo, cfg); err != nil {
		logger.Error("Dictionary seeding failed", log.FieldError, err)
		os.Exit(1)
	}

	// Budgets whose window ended roll into a fresh one before any command
	// reads or writes them.
	if err := budget.Rollover(ctx, repo, logger); err != nil {
		logger.Error("Budget rollover failed", log.FieldError, err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "import":
		err = runImport(ctx, repo, cfg, logger, os.Args[2:])
	case "report":
		err = runReport(ctx, repo, os.Args[2:])
	case "exclusions":
		err = runExclusions(ctx, repo)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		if core.IsInputError(err) {
			fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
			os.Exit(2)
		}
		logger.Error("Command failed", log.FieldError, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  pesa import [-format sms|statement|rows] <file>...
  pesa report [-year YYYY] [-month M]
  pesa exclusions`)
}

func seedDictionary(ctx context.Context, repo *storage.SQLiteRepository, cfg *config.Config) error {
	if cfg.DictionarySeedFile != "" {
		return dictionary.SeedFromFile(ctx, repo, cfg.DictionarySeedFile)
	}
	return dictionary.SeedEmbedded(ctx, repo)
}

func newImporter(repo *storage.SQLiteRepository, cfg *config.Config, logger *log.Logger) *services.ImportService {
	resolver := dictionary.NewResolver(cfg.DictionaryCacheSize, cfg.DictionaryCacheTTL)
	return services.NewImportService(repo, resolver, cfg.Currency, cfg.ImportBatchSize, logger)
}

// runImport parses every input file concurrently, then persists the results
// one file at a time; the importer batches each file's records per its
// configured batch size.
func runImport(ctx context.Context, repo *storage.SQLiteRepository, cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	format := fs.String("format", "", "input format: sms, statement or rows (default: by file extension)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	files := fs.Args()
	if len(files) == 0 {
		return core.InputErrorf("no input files given")
	}

	results := make([]parse.Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := parseFile(file, *format, cfg.Currency)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	importer := newImporter(repo, cfg, logger)
	for i, file := range files {
		report, err := importer.Import(ctx, results[i])
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		printReport(file, report, cfg.Currency)
	}
	return nil
}

func parseFile(file, format, currency string) (parse.Result, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return parse.Result{}, core.InputErrorf("read input file: %v", err)
	}
	switch pickFormat(file, format) {
	case "rows":
		return parse.NewRowsParser(currency).Parse(bytes.NewReader(data))
	case "statement":
		return parse.NewStatementParser(currency).Parse(string(data)), nil
	default:
		return parse.NewSMSParser(currency).Parse(string(data)), nil
	}
}

func pickFormat(file, format string) string {
	if format != "" {
		return format
	}
	switch strings.ToLower(filepath.Ext(file)) {
	case ".csv":
		return "rows"
	default:
		if strings.Contains(strings.ToLower(filepath.Base(file)), "statement") {
			return "statement"
		}
		return "sms"
	}
}

func printReport(file string, report core.Report, currency string) {
	if report.Empty() {
		fmt.Printf("%s: no expenses found\n", file)
		return
	}
	fmt.Printf("%s: %s complete, %s incomplete, %s excluded\n",
		file,
		color.GreenString("%d", report.Complete),
		color.YellowString("%d", report.Incomplete),
		color.HiBlackString("%d", report.Excluded))
	if report.CurrencyChange != "" {
		color.Red("warning: messages use %s but the ledger is in %s", report.CurrencyChange, currency)
	}
}

// runReport prints ledger totals for a month and the per-label breakdown for
// its year, read from the materialized statistics.
func runReport(ctx context.Context, repo *storage.SQLiteRepository, args []string) error {
	now := time.Now().UTC()
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	year := fs.Int("year", now.Year(), "year to report on")
	month := fs.Int("month", int(now.Month()), "calendar month to report on (1-12)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *month < 1 || *month > 12 {
		return core.InputErrorf("invalid month %d", *month)
	}

	q := repo.Queries()
	total, err := q.MonthTotal(ctx, *year, *month)
	if err != nil {
		return err
	}
	labels, err := q.LabelTotalsForYear(ctx, *year)
	if err != nil {
		return err
	}

	fmt.Printf("%d-%02d total: %s\n", *year, *month, color.CyanString(total.StringFixed(2)))
	if len(labels) > 0 {
		fmt.Printf("labels in %d:\n", *year)
		for label, sum := range labels {
			fmt.Printf("  %-20s %s\n", label, sum.StringFixed(2))
		}
	}
	return nil
}

func runExclusions(ctx context.Context, repo *storage.SQLiteRepository) error {
	recipients, err := exclusion.NewFilter().ListExcludedRecipients(ctx, repo.Queries())
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		fmt.Println("no excluded recipients")
		return nil
	}
	for _, r := range recipients {
		fmt.Println(r)
	}
	return nil
}
