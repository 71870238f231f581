package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Varda003/EmoTune/internal/models"
	"github.com/Varda003/EmoTune/internal/recommend"
	"github.com/Varda003/EmoTune/internal/shared"
	"github.com/Varda003/EmoTune/internal/ui"
	"github.com/urfave/cli/v3"
)

// Recommend prints tracks for an emotion. It always succeeds: catalog failures fall back to the built-in table.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	emotion := cmd.StringArg("emotion")
	if strings.TrimSpace(emotion) == "" {
		return fmt.Errorf("%w: emotion is required", shared.ErrMissingArgument)
	}
	if _, ok := models.ParseEmotion(emotion); !ok {
		r.logger.Warn("unknown emotion, using neutral", "emotion", emotion)
	}

	a, err := r.services(ctx)
	if err != nil {
		return err
	}

	result := a.recommender.Recommend(ctx, emotion, cmd.String("language"), int(cmd.Int("limit")))
	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlain("%s\n", ui.EmotionStyle(result.Emotion).Render(ui.EmotionLabel(result.Emotion)+" recommendations"))
	r.writePlain("%s\n", ui.DefaultTheme.Muted.Render(fmt.Sprintf("%s · market %s · genres %s",
		ui.TitleCase(result.Language), result.Market, strings.Join(result.Genres, ", "))))
	if result.Source == recommend.SourceFallback {
		r.writePlain("%s\n", ui.DefaultTheme.Warning.Render("catalog unavailable, showing curated picks"))
	}
	r.writePlain("\n")
	r.writeTracks(result.Tracks)
	return nil
}

// Search queries the catalog directly. Unlike [Runner.Recommend] it fails when no catalog is configured.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}

	a, err := r.services(ctx)
	if err != nil {
		return err
	}
	if a.catalog == nil {
		return fmt.Errorf("%w: spotify credentials are not configured", shared.ErrServiceUnavailable)
	}

	limit := int(cmd.Int("limit"))
	if limit <= 0 || limit > 50 {
		return fmt.Errorf("%w: limit must be between 1 and 50", shared.ErrInvalidFlag)
	}

	tracks, err := a.catalog.Search(ctx, query, recommend.MarketFor(cmd.String("language")), limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Results for %q (%d)", query, len(tracks)))
	r.writeTracks(tracks)
	return nil
}

func (r *Runner) writeTracks(tracks []models.Track) {
	for i, t := range tracks {
		r.writePlain("%2d. %s - %s", i+1, t.Title, t.Artist)
		if t.DurationMS > 0 {
			r.writePlain(" (%s)", formatDuration(t.DurationMS))
		}
		r.writePlain("\n")
		if t.ExternalURL != "" {
			r.writePlain("    %s\n", ui.DefaultTheme.Muted.Render(t.ExternalURL))
		}
	}
}

func formatDuration(ms int) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
