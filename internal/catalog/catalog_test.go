package catalog

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/classroom-booking/internal/cache"
	"github.com/iliyamo/classroom-booking/internal/config"
	"github.com/iliyamo/classroom-booking/internal/model"
	"github.com/iliyamo/classroom-booking/internal/repository"
)

type stubSource struct {
	calls    int32
	sessions []model.Session
}

func (s *stubSource) ListAll(context.Context) ([]model.Session, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.sessions, nil
}

func newTestCatalog(sessions ...model.Session) (*Catalog, *stubSource, *cache.Cache) {
	src := &stubSource{sessions: sessions}
	c := cache.New(cache.NewMemoryMedium(), config.SnapshotCacheConfig{
		Enabled: true, TTL: time.Minute, Prefix: "snap",
	})
	return New(src, c), src, c
}

func sess(classroom, date string) model.Session {
	return model.Session{
		Classroom: classroom, Date: date, Type: model.TypeSessionBased,
		StartTime: "10:00", EndTime: "17:00", MaxCapacity: 10,
	}
}

func TestFindSessionServedFromSnapshot(t *testing.T) {
	cat, src, _ := newTestCatalog(sess("Tokyo", "2026-09-01"), sess("Osaka", "2026-09-01"))
	ctx := context.Background()

	s, err := cat.FindSession(ctx, "2026-09-01", "Osaka")
	require.NoError(t, err)
	assert.Equal(t, "Osaka", s.Classroom)

	_, err = cat.FindSession(ctx, "2026-09-01", "Tokyo")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&src.calls), "second lookup must hit the snapshot")
}

func TestFindSessionNotFound(t *testing.T) {
	cat, _, _ := newTestCatalog(sess("Tokyo", "2026-09-01"))
	_, err := cat.FindSession(context.Background(), "2026-09-01", "Nagoya")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFindSessionAfterInvalidation(t *testing.T) {
	cat, src, c := newTestCatalog(sess("Tokyo", "2026-09-01"))
	ctx := context.Background()

	_, err := cat.FindSession(ctx, "2026-09-01", "Tokyo")
	require.NoError(t, err)

	// Schedule changes upstream; invalidation makes the next read see it.
	src.sessions = append(src.sessions, sess("Osaka", "2026-09-02"))
	c.Invalidate(ctx, cache.KeyScheduleMaster)

	s, err := cat.FindSession(ctx, "2026-09-02", "Osaka")
	require.NoError(t, err)
	assert.Equal(t, "Osaka", s.Classroom)
	assert.Equal(t, int32(2), atomic.LoadInt32(&src.calls))
}

func TestListSessionsInclusiveBounds(t *testing.T) {
	cat, _, _ := newTestCatalog(
		sess("Tokyo", "2026-09-01"),
		sess("Tokyo", "2026-09-05"),
		sess("Tokyo", "2026-09-10"),
	)
	ctx := context.Background()

	all, err := cat.ListSessions(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mid, err := cat.ListSessions(ctx, "2026-09-01", "2026-09-05")
	require.NoError(t, err)
	require.Len(t, mid, 2)
	assert.Equal(t, "2026-09-01", mid[0].Date)
	assert.Equal(t, "2026-09-05", mid[1].Date)

	tail, err := cat.ListSessions(ctx, "2026-09-06", "")
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, "2026-09-10", tail[0].Date)
}
