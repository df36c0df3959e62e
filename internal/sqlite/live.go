// This file implements live queries: a query re-runs its listing after
// every committed mutation and pushes the result to a conflated channel.
package sqlite

import (
	"context"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/contactbook/pkg/types"
)

// QueryOrderedBy opens a live query ordered by criterion. The first
// listing is sent immediately. A slow reader only ever sees the latest
// listing. The channel closes when ctx ends, on Detach, or right after a
// result carrying an error.
func (b *Backend) QueryOrderedBy(ctx context.Context, criterion types.SortCriterion) <-chan types.QueryResult {
	out := make(chan types.QueryResult, 1)

	b.mu.RLock()
	attached := b.attached
	changes := b.changes
	b.mu.RUnlock()

	if !attached {
		out <- types.QueryResult{Err: types.ErrDetached}
		close(out)
		return out
	}

	ctx, cancel := context.WithCancel(ctx)
	versions := changes.Observe(ctx)
	b.queries.Add(1)
	b.log.Debug("live query opened", zap.Stringer("criterion", criterion))

	go func() {
		defer close(out)
		defer b.queries.Add(-1)
		defer cancel()

		for range versions {
			contacts, err := b.listForQuery(ctx, criterion)
			if ctx.Err() != nil {
				return
			}
			send(out, types.QueryResult{Contacts: contacts, Err: err})
			if err != nil {
				b.log.Debug("live query failed", zap.Stringer("criterion", criterion), zap.Error(err))
				return
			}
		}
		b.log.Debug("live query closed", zap.Stringer("criterion", criterion))
	}()
	return out
}

// listForQuery lists under the read lock, reporting ErrDetached if the
// backend detached since the query opened.
func (b *Backend) listForQuery(ctx context.Context, criterion types.SortCriterion) ([]types.Contact, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.listLocked(ctx, criterion)
}

// send replaces any unread result in ch with r.
func send(ch chan types.QueryResult, r types.QueryResult) {
	select {
	case <-ch:
	default:
	}
	ch <- r
}
