package dictionary

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"pesa/internal/core"
	"pesa/internal/storage"
)

//go:embed seed.yaml
var embeddedSeed []byte

type seedRule struct {
	Match string `yaml:"match"`
	Label string `yaml:"label"`
}

type seedFile struct {
	Keywords []seedRule `yaml:"keywords"`
}

// SeedEmbedded installs the built-in keyword rules, skipping any already
// present. Safe to run on every start.
func SeedEmbedded(ctx context.Context, repo *storage.SQLiteRepository) error {
	return seed(ctx, repo, embeddedSeed)
}

// SeedFromFile installs keyword rules from a user-supplied file instead of
// the embedded defaults.
func SeedFromFile(ctx context.Context, repo *storage.SQLiteRepository, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.InputErrorf("read dictionary seed file: %v", err)
	}
	return seed(ctx, repo, data)
}

func seed(ctx context.Context, repo *storage.SQLiteRepository, data []byte) error {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse dictionary seed rules: %w", err)
	}

	for i, rule := range f.Keywords {
		if strings.TrimSpace(rule.Match) == "" {
			return fmt.Errorf("seed rule %d: match cannot be empty", i)
		}
		if strings.TrimSpace(rule.Label) == "" {
			return fmt.Errorf("seed rule %d (%s): label cannot be empty", i, rule.Match)
		}
	}

	return repo.RunInTransaction(ctx, func(q *storage.Queries) error {
		for _, rule := range f.Keywords {
			match := core.NormalizeRecipient(rule.Match)

			_, err := q.GetDictionaryItem(ctx, match, core.DictionaryKeyword)
			if err == nil {
				continue // user may have re-labeled it; leave it alone
			}
			if !errors.Is(err, core.ErrNotFound) {
				return err
			}

			item := core.DictionaryItem{
				ID:         uuid.NewString(),
				Match:      match,
				Type:       core.DictionaryKeyword,
				Label:      core.NormalizeLabel(rule.Label),
				ModifiedAt: time.Now().UTC(),
			}
			if err := q.CreateDictionaryItem(ctx, item); err != nil {
				return err
			}
			if err := q.AdjustCollectionCount(ctx, core.CollectionKeywords, 1); err != nil {
				return err
			}
		}
		return nil
	})
}
