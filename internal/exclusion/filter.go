// Package exclusion answers whether a recipient is on the user's exclusion
// list. Exclusion is represented purely by the existence of a namespaced
// collection row; the bulk moves that accompany excluding or restoring a
// recipient are sequenced by the expense service so that counts and
// aggregates stay consistent.
package exclusion

import (
	"context"
	"strings"

	"pesa/internal/core"
	"pesa/internal/storage"
)

type Filter struct{}

func NewFilter() *Filter {
	return &Filter{}
}

// IsExcluded reports whether the recipient has an exclusion bucket.
func (f *Filter) IsExcluded(ctx context.Context, q *storage.Queries, recipient string) (bool, error) {
	recipient = core.NormalizeRecipient(recipient)
	if recipient == "" {
		return false, nil
	}
	return q.CollectionExists(ctx, core.ExclusionCollection(recipient))
}

// ListExcludedRecipients returns every recipient with an exclusion bucket.
func (f *Filter) ListExcludedRecipients(ctx context.Context, q *storage.Queries) ([]string, error) {
	collections, err := q.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	var recipients []string
	for name := range collections {
		if core.IsExclusionCollection(name) {
			recipients = append(recipients, strings.TrimPrefix(name, core.ExclusionPrefix))
		}
	}
	return recipients, nil
}
