// Package dictionary maps recipient strings to best-guess labels. Matching
// walks the stored match rules; learning writes recipient associations back
// as the user corrects labels, so the dictionary improves with use.
package dictionary

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"pesa/internal/cache"
	"pesa/internal/core"
	"pesa/internal/storage"
)

type Resolver struct {
	cache *cache.LRUCache[string]
}

func NewResolver(cacheSize int, cacheTTL time.Duration) *Resolver {
	return &Resolver{
		cache: cache.NewLRUCache[string](cacheSize, cacheTTL),
	}
}

var accountSuffix = regexp.MustCompile(`(?i)for account\s+(\S+)`)

// Resolve returns the label for a recipient. Dictionary entries match by
// substring containment of their match string inside the recipient; keyword
// entries outrank recipient entries, and within a tier the longest match
// wins. Without any hit a fallback label is fabricated from the recipient
// itself, so imports never produce unlabeled complete expenses.
func (r *Resolver) Resolve(ctx context.Context, q *storage.Queries, recipient string) (string, error) {
	recipient = core.NormalizeRecipient(recipient)
	if recipient == "" {
		return "", nil
	}

	if label, ok := r.cache.Get(recipient); ok {
		return label, nil
	}

	items, err := q.ListDictionary(ctx)
	if err != nil {
		return "", fmt.Errorf("load dictionary: %w", err)
	}

	label := bestMatch(recipient, items)
	if label == "" {
		label = FallbackLabel(recipient)
	}

	r.cache.Set(recipient, label)
	return label, nil
}

func bestMatch(recipient string, items []core.DictionaryItem) string {
	var best *core.DictionaryItem
	for i := range items {
		item := &items[i]
		match := core.NormalizeRecipient(item.Match)
		if match == "" || !strings.Contains(recipient, match) {
			continue
		}
		if best == nil || betterThan(item, best) {
			best = item
		}
	}
	if best == nil {
		return ""
	}
	return best.Label
}

func betterThan(a, b *core.DictionaryItem) bool {
	pa, pb := core.DictionaryTypePriority(a.Type), core.DictionaryTypePriority(b.Type)
	if pa != pb {
		return pa > pb
	}
	return len(a.Match) > len(b.Match)
}

// FallbackLabel fabricates a label from the first two words of the
// recipient, keeping the account suffix when the recipient names one.
func FallbackLabel(recipient string) string {
	label := core.FirstWords(recipient, 2)
	if m := accountSuffix.FindStringSubmatch(recipient); m != nil {
		label += " " + m[1]
	}
	return label
}

// Learn upserts a recipient-type dictionary entry: created on first sight
// (bumping the recipients collection counter), updated in place afterwards.
// Called when the user edits an expense's label with a recipient present.
func (r *Resolver) Learn(ctx context.Context, q *storage.Queries, recipient, label string) error {
	recipient = core.NormalizeRecipient(recipient)
	if recipient == "" || label == "" {
		return nil
	}

	now := time.Now().UTC()

	_, err := q.GetDictionaryItem(ctx, recipient, core.DictionaryRecipient)
	switch {
	case errors.Is(err, core.ErrNotFound):
		item := core.DictionaryItem{
			ID:         uuid.NewString(),
			Match:      recipient,
			Type:       core.DictionaryRecipient,
			Label:      label,
			ModifiedAt: now,
		}
		if err := q.CreateDictionaryItem(ctx, item); err != nil {
			return err
		}
		if err := q.AdjustCollectionCount(ctx, core.CollectionRecipients, 1); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if err := q.UpdateDictionaryLabel(ctx, recipient, core.DictionaryRecipient, label, now); err != nil {
			return err
		}
	}

	// Containment matching means one new entry can change the resolution of
	// many recipients, not just this one.
	r.cache.Purge()
	return nil
}
