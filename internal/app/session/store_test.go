package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/TrackDesk/internal/app/model"
	"github.com/sifan077/TrackDesk/internal/app/page"
	"github.com/sifan077/TrackDesk/internal/app/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, NewRedisStore(rdb, time.Hour)
}

func stores(t *testing.T) map[string]Store {
	_, rs := setupMiniRedis(t)
	return map[string]Store{
		"memory": NewMemoryStore(time.Hour),
		"redis":  rs,
	}
}

func TestStore_LoadMissing(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Load(context.Background(), "nope")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_UpdateCreatesAndPersists(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			updated, err := st.Update(ctx, "abc", func(s *State) error {
				s.Theme = s.Theme.Next()
				p := s.Page(page.KindRetrieve)
				ticket, err := p.Begin("USRC17607839", time.Now())
				require.NoError(t, err)
				p.Resolve(ticket, &model.Track{Name: "Song", ArtistName: "Artist"}, "cover", nil)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, theme.Dark, updated.Theme)

			loaded, err := st.Load(ctx, "abc")
			require.NoError(t, err)
			assert.Equal(t, "abc", loaded.ID)
			assert.Equal(t, theme.Dark, loaded.Theme)

			p := loaded.Page(page.KindRetrieve)
			assert.Equal(t, page.StatusSuccess, p.Status)
			require.NotNil(t, p.Track)
			assert.Equal(t, "Song", p.Track.Name)
			assert.Equal(t, page.StatusIdle, loaded.Page(page.KindCreate).Status)
		})
	}
}

func TestStore_UpdateErrorDiscardsChanges(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Update(ctx, "abc", func(s *State) error { return nil })
			require.NoError(t, err)

			_, err = st.Update(ctx, "abc", func(s *State) error {
				s.Theme = theme.Dark
				return boom
			})
			assert.ErrorIs(t, err, boom)

			loaded, err := st.Load(ctx, "abc")
			require.NoError(t, err)
			assert.Equal(t, theme.Light, loaded.Theme)
		})
	}
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Update(ctx, "abc", func(s *State) error { return nil })
			require.NoError(t, err)
			require.NoError(t, st.Delete(ctx, "abc"))

			_, err = st.Load(ctx, "abc")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_ConcurrentTogglesAreSerialized(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			const n = 4
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = st.Update(ctx, "abc", func(s *State) error {
						s.Theme = s.Theme.Next()
						return nil
					})
				}()
			}
			wg.Wait()

			loaded, err := st.Load(ctx, "abc")
			require.NoError(t, err)
			// an even number of toggles lands back on light
			assert.Equal(t, theme.Light, loaded.Theme)
		})
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	st := NewMemoryStore(time.Minute)
	st.now = func() time.Time { return now }

	_, err := st.Update(ctx, "abc", func(s *State) error { return nil })
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = st.Load(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_TTL(t *testing.T) {
	mr, st := setupMiniRedis(t)
	ctx := context.Background()

	_, err := st.Update(ctx, "abc", func(s *State) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+"abc"))

	mr.FastForward(2 * time.Hour)
	_, err = st.Load(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore(time.Hour)

	got, err := st.Update(ctx, "abc", func(s *State) error { return nil })
	require.NoError(t, err)
	got.Page(page.KindCreate).Code = "mutated"

	loaded, err := st.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, loaded.Page(page.KindCreate).Code)
}
