package recommend

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Varda003/EmoTune/internal/cache"
	"github.com/Varda003/EmoTune/internal/models"
	tu "github.com/Varda003/EmoTune/internal/testing"
	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampLimit(t *testing.T) {
	tc := []struct {
		limit int
		want  int
	}{
		{-1, DefaultLimit},
		{0, DefaultLimit},
		{1, 1},
		{20, 20},
		{21, MaxLimit},
		{500, MaxLimit},
	}

	for _, tt := range tc {
		assert.Equal(t, tt.want, ClampLimit(tt.limit), "limit %d", tt.limit)
	}
}

func TestMaps(t *testing.T) {
	t.Run("Markets", func(t *testing.T) {
		tc := []struct {
			language string
			want     string
		}{
			{"english", "US"},
			{" Hindi ", "IN"},
			{"SPANISH", "ES"},
			{"french", "FR"},
			{"german", "DE"},
			{"italian", "IT"},
			{"portuguese", "BR"},
			{"klingon", "US"},
			{"", "US"},
		}
		for _, tt := range tc {
			assert.Equal(t, tt.want, MarketFor(tt.language), "language %q", tt.language)
		}
	})

	t.Run("Genres", func(t *testing.T) {
		for _, e := range models.Emotions() {
			genres := GenresFor(e)
			assert.NotEmpty(t, genres, e)
			assert.LessOrEqual(t, len(genres), maxSeedGenres, e)
		}
		assert.Equal(t, []string{"pop", "dance", "party", "happy"}, GenresFor(models.Happy))
		assert.Equal(t, GenresFor(models.Neutral), GenresFor(models.Emotion("bored")))
		assert.Len(t, GenreMap(), 7)
	})

	t.Run("GenresFor Returns Copy", func(t *testing.T) {
		g := GenresFor(models.Sad)
		g[0] = "changed"
		assert.Equal(t, "acoustic", GenresFor(models.Sad)[0])
	})
}

func TestFallback(t *testing.T) {
	t.Run("Every Emotion Has Valid Tracks", func(t *testing.T) {
		for _, e := range models.Emotions() {
			for _, track := range Fallback(e, MaxLimit) {
				assert.True(t, track.Valid(), "%s: %+v", e, track)
				assert.Empty(t, track.ID)
				assert.Empty(t, track.PreviewURL)
			}
		}
	})

	t.Run("Cycles To Pad", func(t *testing.T) {
		tracks := Fallback(models.Happy, 20)
		require.Len(t, tracks, 20)
		size := len(fallbackTracks[models.Happy])
		assert.Equal(t, tracks[0], tracks[size])
	})

	t.Run("Truncates", func(t *testing.T) {
		assert.Len(t, Fallback(models.Sad, 3), 3)
	})

	t.Run("Deterministic", func(t *testing.T) {
		assert.Equal(t, Fallback(models.Angry, 9), Fallback(models.Angry, 9))
	})
}

func TestOrchestrator(t *testing.T) {
	ctx := context.Background()

	t.Run("Catalog Tracks", func(t *testing.T) {
		catalog := &tu.MockCatalog{Tracks: tu.Tracks(10)}
		o := New(WithCatalog(catalog))

		result := o.Recommend(ctx, " HAPPY ", "hindi", 6)
		assert.Equal(t, SourceCatalog, result.Source)
		assert.Equal(t, models.Happy, result.Emotion)
		assert.Equal(t, "hindi", result.Language)
		assert.Equal(t, "IN", result.Market)
		assert.Len(t, result.Tracks, 6)

		q := catalog.LastQuery()
		assert.Equal(t, "IN", q.Market)
		assert.Equal(t, 6, q.Limit)
		assert.Equal(t, []string{"pop", "dance", "party", "happy"}, q.Genres)
	})

	t.Run("Synonyms And Unknown Emotions", func(t *testing.T) {
		o := New()
		assert.Equal(t, models.Fearful, o.Recommend(ctx, "fear", "", 1).Emotion)
		assert.Equal(t, models.Disgusted, o.Recommend(ctx, "disgust", "", 1).Emotion)
		assert.Equal(t, models.Surprised, o.Recommend(ctx, "Surprise", "", 1).Emotion)
		assert.Equal(t, models.Neutral, o.Recommend(ctx, "bored", "", 1).Emotion)
	})

	t.Run("No Catalog Uses Fallback", func(t *testing.T) {
		result := New().Recommend(ctx, "sad", "english", 0)
		assert.Equal(t, SourceFallback, result.Source)
		assert.Equal(t, Fallback(models.Sad, DefaultLimit), result.Tracks)
	})

	t.Run("Failing Catalog Uses Fallback", func(t *testing.T) {
		catalog := &tu.MockCatalog{Err: errors.New("boom")}
		result := New(WithCatalog(catalog)).Recommend(ctx, "happy", "english", 6)

		assert.Equal(t, SourceFallback, result.Source)
		require.Len(t, result.Tracks, 6)
		for _, track := range result.Tracks {
			assert.True(t, track.Valid())
		}
		assert.Equal(t, 1, catalog.Calls())
	})

	t.Run("Slow Catalog Hits Deadline", func(t *testing.T) {
		catalog := &tu.MockCatalog{Tracks: tu.Tracks(3), Delay: time.Second}
		o := New(WithCatalog(catalog), WithTimeout(20*time.Millisecond))

		start := time.Now()
		result := o.Recommend(ctx, "angry", "", 4)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
		assert.Equal(t, SourceFallback, result.Source)
		assert.Len(t, result.Tracks, 4)
	})

	t.Run("Invalid Catalog Tracks Are Dropped", func(t *testing.T) {
		tracks := tu.Tracks(2)
		tracks = append(tracks, models.Track{ID: "x", Title: "No Artist"}, models.Track{ID: "y", Artist: "No Title"})
		catalog := &tu.MockCatalog{Tracks: tracks}

		result := New(WithCatalog(catalog)).Recommend(ctx, "happy", "", 6)
		assert.Equal(t, SourceCatalog, result.Source)
		assert.Len(t, result.Tracks, 2)
	})

	t.Run("Only Invalid Tracks Uses Fallback", func(t *testing.T) {
		catalog := &tu.MockCatalog{Tracks: []models.Track{{ID: "x", Title: "  "}}}
		result := New(WithCatalog(catalog)).Recommend(ctx, "happy", "", 6)
		assert.Equal(t, SourceFallback, result.Source)
	})

	t.Run("Empty Catalog Uses Fallback", func(t *testing.T) {
		result := New(WithCatalog(&tu.MockCatalog{})).Recommend(ctx, "neutral", "", 2)
		assert.Equal(t, SourceFallback, result.Source)
		assert.Len(t, result.Tracks, 2)
	})

	t.Run("Concurrent Misses Share One Call", func(t *testing.T) {
		catalog := &tu.MockCatalog{Tracks: tu.Tracks(6), Delay: 100 * time.Millisecond}
		o := New(WithCatalog(catalog))

		var wg sync.WaitGroup
		results := make([]*Result, 8)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = o.Recommend(ctx, "happy", "english", 6)
			}()
		}
		wg.Wait()

		for _, r := range results {
			assert.Equal(t, SourceCatalog, r.Source)
			assert.Len(t, r.Tracks, 6)
		}
		assert.Less(t, catalog.Calls(), len(results))
	})

	t.Run("Cache Aside", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		defer mr.Close()

		c, err := cache.NewWithRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "t:", time.Minute, nil)
		require.NoError(t, err)

		catalog := &tu.MockCatalog{Tracks: tu.Tracks(6)}
		o := New(WithCatalog(catalog), WithCache(c))

		first := o.Recommend(ctx, "happy", "english", 6)
		second := o.Recommend(ctx, "happy", "english", 6)

		assert.Equal(t, 1, catalog.Calls())
		assert.Equal(t, first.Tracks, second.Tracks)
		assert.True(t, mr.Exists("t:"+cache.Key(models.Happy, "US", 6)))
		assert.Equal(t, int64(1), c.Stats().Hits)

		t.Run("Fallback Is Not Cached", func(t *testing.T) {
			failing := New(WithCatalog(&tu.MockCatalog{Err: errors.New("down")}), WithCache(c))
			result := failing.Recommend(ctx, "sad", "english", 6)
			assert.Equal(t, SourceFallback, result.Source)
			assert.False(t, mr.Exists("t:"+cache.Key(models.Sad, "US", 6)))
		})

		t.Run("Cache Outage Falls Through To Catalog", func(t *testing.T) {
			mr.Close()
			catalog := &tu.MockCatalog{Tracks: tu.Tracks(3)}
			result := New(WithCatalog(catalog), WithCache(c)).Recommend(ctx, "angry", "english", 3)
			assert.Equal(t, SourceCatalog, result.Source)
			assert.Equal(t, 1, catalog.Calls())
		})
	})

	t.Run("Metrics", func(t *testing.T) {
		o := New(WithCatalog(&tu.MockCatalog{Err: errors.New("down")}))
		o.Recommend(ctx, "happy", "", 1)
		o.Recommend(ctx, "happy", "", 1)

		assert.Len(t, o.Metrics().Collectors(), 3)
		assert.Equal(t, 2.0, testutil.ToFloat64(o.metrics.fallback.WithLabelValues(reasonError)))
		assert.Equal(t, 2.0, testutil.ToFloat64(o.metrics.requests.WithLabelValues("happy", "fallback")))
	})
}
