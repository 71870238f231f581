package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Varda003/EmoTune/internal/shared"
	"github.com/Varda003/EmoTune/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Detect classifies local face images with the configured classifier, printing progress as each finishes.
func (r *Runner) Detect(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one image path is required", shared.ErrMissingArgument)
	}
	if len(paths) > tasks.MaxBatchSize {
		return fmt.Errorf("%w: at most %d images per batch", shared.ErrInvalidArgument, tasks.MaxBatchSize)
	}

	images := make([]tasks.Image, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		images = append(images, tasks.Image{Filename: filepath.Base(p), Data: data})
	}

	a, err := r.services(ctx)
	if err != nil {
		return err
	}

	useJSON := cmd.Bool("json")

	progressCh := make(chan tasks.ProgressUpdate, tasks.MaxBatchSize+1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if useJSON {
				continue
			}
			switch update.Phase {
			case tasks.DetectQueued:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.DetectImage:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	result, err := a.detector.BatchDetect(ctx, progressCh, images, tasks.BatchOpts{
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  r.config.Classifier.RateLimit,
	})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlain("\n")
	r.writePlainHeader("Detection Complete")
	r.writePlain("Success rate: %d/%d\n", result.Successful, result.Total)
	return nil
}
