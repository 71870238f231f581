package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/Varda003/EmoTune/internal/formatter"
	"github.com/Varda003/EmoTune/internal/ledger"
	"github.com/Varda003/EmoTune/internal/models"
	"github.com/Varda003/EmoTune/internal/repositories"
	"github.com/Varda003/EmoTune/internal/ui"
	"github.com/urfave/cli/v3"
)

// lookupUser resolves the --user email flag to an account.
func (r *Runner) lookupUser(ctx context.Context, a *app, email string) (*models.User, error) {
	user, err := repositories.NewUserRepository(a.db).GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", email, err)
	}
	return user, nil
}

// LikedList prints a user's liked songs, newest first.
func (r *Runner) LikedList(ctx context.Context, cmd *cli.Command) error {
	a, err := r.services(ctx)
	if err != nil {
		return err
	}
	user, err := r.lookupUser(ctx, a, cmd.String("user"))
	if err != nil {
		return err
	}

	songs, err := a.ledger.List(ctx, user.ID, ledger.ListOptions{
		Limit:   int(cmd.Int("limit")),
		Emotion: cmd.String("emotion"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s's liked songs (%d)", user.Name, len(songs)))
	for _, s := range songs {
		emotion := s.EmotionDetected
		if emotion == "" {
			emotion = "-"
		}
		r.writePlain("%s  %-10s %s - %s\n", s.LikedAt.Local().Format("2006-01-02"), emotion, s.SongTitle, s.Artist)
		r.writePlain("    %s\n", ui.DefaultTheme.Muted.Render("id "+s.ID))
	}
	return nil
}

// LikedExport writes a user's liked songs to a file in the chosen format.
func (r *Runner) LikedExport(ctx context.Context, cmd *cli.Command) error {
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	a, err := r.services(ctx)
	if err != nil {
		return err
	}
	user, err := r.lookupUser(ctx, a, cmd.String("user"))
	if err != nil {
		return err
	}

	data, err := a.ledger.Export(ctx, user.ID, f)
	if err != nil {
		return err
	}

	path := cmd.String("output")
	if path == "" {
		path = formatter.Filename(f, "")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	r.logger.Info("liked songs exported", "user_id", user.ID, "format", f, "path", path)
	r.writePlain("✓ Exported to %s\n", path)
	return nil
}

// LikedStats prints the listening summary of a user.
func (r *Runner) LikedStats(ctx context.Context, cmd *cli.Command) error {
	a, err := r.services(ctx)
	if err != nil {
		return err
	}
	user, err := r.lookupUser(ctx, a, cmd.String("user"))
	if err != nil {
		return err
	}

	stats, err := a.ledger.Statistics(ctx, user.ID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Statistics for %s", user.Name))
	r.writePlain("Liked songs:        %d\n", stats.TotalLikedSongs)
	r.writePlain("Emotions explored:  %d\n", stats.EmotionsExplored)
	if stats.MostLikedEmotion != "" {
		r.writePlain("Most liked emotion: %s\n", stats.MostLikedEmotion)
	}
	if stats.LastActivity != nil {
		r.writePlain("Last activity:      %s\n", stats.LastActivity.Local().Format("2006-01-02 15:04"))
	}
	r.writePlain("Account age:        %d days\n", stats.AccountAgeDays)

	if len(stats.EmotionBreakdown) > 0 {
		emotions := make([]string, 0, len(stats.EmotionBreakdown))
		for e := range stats.EmotionBreakdown {
			emotions = append(emotions, e)
		}
		sort.Slice(emotions, func(i, j int) bool {
			ci, cj := stats.EmotionBreakdown[emotions[i]], stats.EmotionBreakdown[emotions[j]]
			if ci != cj {
				return ci > cj
			}
			return emotions[i] < emotions[j]
		})

		r.writePlainln("Breakdown:")
		for _, e := range emotions {
			r.writePlain("  %-10s %d\n", e, stats.EmotionBreakdown[e])
		}
	}
	return nil
}
