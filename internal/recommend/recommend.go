package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Varda003/EmoTune/internal/cache"
	"github.com/Varda003/EmoTune/internal/models"
	"github.com/Varda003/EmoTune/internal/services"
	"github.com/Varda003/EmoTune/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultLimit   = 6
	MaxLimit       = 20
	DefaultTimeout = 5 * time.Second
)

// Source tells where the tracks of a [Result] came from.
type Source string

const (
	SourceCatalog  Source = "catalog"
	SourceFallback Source = "fallback"
)

// Fallback reasons reported in metrics and logs.
const (
	reasonNoCatalog = "no_catalog"
	reasonError     = "error"
	reasonTimeout   = "timeout"
	reasonEmpty     = "empty"
)

var errEmptyResult = errors.New("catalog returned no usable tracks")

// Catalog is the part of [services.MusicCatalog] the orchestrator calls.
type Catalog interface {
	Recommendations(ctx context.Context, q services.RecommendationQuery) ([]models.Track, error)
}

// TrackCache stores catalog results between requests.
type TrackCache interface {
	Get(ctx context.Context, key string) ([]models.Track, bool, error)
	Set(ctx context.Context, key string, tracks []models.Track) error
}

// Result is a recommendation answer.
type Result struct {
	Emotion  models.Emotion `json:"emotion"`
	Language string         `json:"language"`
	Market   string         `json:"market"`
	Genres   []string       `json:"genres_used"`
	Tracks   []models.Track `json:"tracks"`
	Source   Source         `json:"source"`
}

// Orchestrator turns an emotion into tracks. It never fails: catalog problems of any kind are answered from
// the fallback table.
type Orchestrator struct {
	catalog Catalog
	cache   TrackCache
	timeout time.Duration
	group   singleflight.Group
	metrics *Metrics
	logger  *log.Logger
}

// Option configures an [Orchestrator].
type Option func(*Orchestrator)

// WithCatalog sets the catalog. A nil catalog leaves the orchestrator on the fallback table.
func WithCatalog(c Catalog) Option {
	return func(o *Orchestrator) { o.catalog = c }
}

// WithCache enables cache-aside lookups.
func WithCache(c TrackCache) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// WithTimeout bounds each catalog call. Zero or less uses [DefaultTimeout].
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = shared.WithLogger(l, "component", "recommend") }
}

// New creates an [Orchestrator].
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		timeout: DefaultTimeout,
		metrics: newMetrics(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = shared.WithLogger(nil, "component", "recommend")
	}
	return o
}

// Metrics returns the orchestrator's counters.
func (o *Orchestrator) Metrics() *Metrics {
	return o.metrics
}

// ClampLimit maps limit to [1, MaxLimit], using [DefaultLimit] for zero or less.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// Recommend returns up to limit tracks for emotion in the market of language.
//
// Unknown emotions are treated as neutral and unknown languages use the US market.
func (o *Orchestrator) Recommend(ctx context.Context, emotion, language string, limit int) *Result {
	e := models.NormalizeEmotion(emotion)
	language = NormalizeLanguage(language)
	limit = ClampLimit(limit)

	result := &Result{
		Emotion:  e,
		Language: language,
		Market:   MarketFor(language),
		Genres:   GenresFor(e),
	}

	tracks, reason := o.fromCatalog(ctx, result, limit)
	if reason == "" {
		result.Tracks = tracks
		result.Source = SourceCatalog
	} else {
		result.Tracks = Fallback(e, limit)
		result.Source = SourceFallback
		o.metrics.fallback.WithLabelValues(reason).Inc()
	}

	o.metrics.requests.WithLabelValues(string(e), string(result.Source)).Inc()
	return result
}

// fromCatalog returns catalog tracks, or a non-empty fallback reason.
func (o *Orchestrator) fromCatalog(ctx context.Context, r *Result, limit int) ([]models.Track, string) {
	if o.catalog == nil {
		return nil, reasonNoCatalog
	}

	key := cache.Key(r.Emotion, r.Market, limit)
	if o.cache != nil {
		tracks, ok, err := o.cache.Get(ctx, key)
		if err != nil {
			o.logger.Warn("cache read failed", "key", key, "error", err)
		}
		if ok && len(tracks) > 0 {
			return tracks, ""
		}
	}

	v, err, dup := o.group.Do(key, func() (any, error) {
		return o.fetch(ctx, r, limit, key)
	})
	if err != nil {
		reason := reasonError
		if errors.Is(err, context.DeadlineExceeded) {
			reason = reasonTimeout
		} else if errors.Is(err, errEmptyResult) {
			reason = reasonEmpty
		}
		o.logger.Warn("catalog unavailable, using fallback", "emotion", r.Emotion, "reason", reason, "error", err)
		return nil, reason
	}

	tracks := v.([]models.Track)
	if dup {
		tracks = append([]models.Track(nil), tracks...)
	}
	return tracks, ""
}

// fetch performs one deadline-bound catalog call and fills the cache on success.
func (o *Orchestrator) fetch(ctx context.Context, r *Result, limit int, key string) ([]models.Track, error) {
	// The call is shared by every waiter on key, so it outlives the caller that started it.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.timeout)
	defer cancel()

	start := time.Now()
	raw, err := o.catalog.Recommendations(callCtx, services.RecommendationQuery{
		Genres: r.Genres,
		Market: r.Market,
		Limit:  limit,
	})
	o.metrics.latency.Observe(time.Since(start).Seconds())
	if err != nil {
		if callCtx.Err() != nil {
			return nil, fmt.Errorf("catalog call: %w", callCtx.Err())
		}
		return nil, err
	}

	tracks := make([]models.Track, 0, len(raw))
	for _, t := range raw {
		if t.Valid() {
			tracks = append(tracks, t)
		}
	}
	if len(tracks) == 0 {
		return nil, errEmptyResult
	}
	if len(tracks) > limit {
		tracks = tracks[:limit]
	}

	if o.cache != nil {
		if err := o.cache.Set(callCtx, key, tracks); err != nil {
			o.logger.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return tracks, nil
}
