// Package catalog provides cached, read-only lookup of session
// definitions.  It serves display traffic; the write transaction
// re-reads sessions from the authoritative store and never goes through
// this package.
package catalog

import (
	"context"

	"github.com/iliyamo/classroom-booking/internal/cache"
	"github.com/iliyamo/classroom-booking/internal/model"
	"github.com/iliyamo/classroom-booking/internal/repository"
)

// SessionSource is the authoritative schedule reader backing snapshot
// rebuilds.
type SessionSource interface {
	ListAll(ctx context.Context) ([]model.Session, error)
}

// Catalog answers session lookups from the SCHEDULE_MASTER snapshot,
// rebuilding it through the versioned cache on a miss.
type Catalog struct {
	source SessionSource
	cache  *cache.Cache
}

// New builds a Catalog over the given source and cache.
func New(source SessionSource, c *cache.Cache) *Catalog {
	return &Catalog{source: source, cache: c}
}

func (c *Catalog) snapshot(ctx context.Context) ([]model.Session, error) {
	entry, err := c.cache.GetOrRebuild(ctx, cache.KeyScheduleMaster, func(ctx context.Context) (any, error) {
		return c.source.ListAll(ctx)
	})
	if err != nil {
		return nil, err
	}
	var sessions []model.Session
	if err := entry.Decode(&sessions); err != nil {
		// Corrupt snapshot: drop it and fall back to the store.
		c.cache.Invalidate(ctx, cache.KeyScheduleMaster)
		return c.source.ListAll(ctx)
	}
	return sessions, nil
}

// FindSession returns the session for (date, classroom), or
// repository.ErrNotFound.  An unscheduled date is a normal outcome, not
// a failure.
func (c *Catalog) FindSession(ctx context.Context, date, classroom string) (*model.Session, error) {
	sessions, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].Date == date && sessions[i].Classroom == classroom {
			s := sessions[i]
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

// ListSessions returns sessions within the inclusive [from, to] date
// range, in snapshot order.  Empty bounds are unbounded.  ISO dates
// compare correctly as strings.
func (c *Catalog) ListSessions(ctx context.Context, from, to string) ([]model.Session, error) {
	sessions, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Session, 0, len(sessions))
	for i := range sessions {
		d := sessions[i].Date
		if from != "" && d < from {
			continue
		}
		if to != "" && d > to {
			continue
		}
		out = append(out, sessions[i])
	}
	return out, nil
}
