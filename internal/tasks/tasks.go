// package tasks runs emotion detection over batches of uploaded images.
//
// The core abstraction is DetectEngine, which fans images out to a bounded worker pool.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/HTTP layers.
package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/Varda003/EmoTune/internal/models"
	"github.com/Varda003/EmoTune/internal/services"
	"github.com/Varda003/EmoTune/internal/shared"
	"golang.org/x/time/rate"
)

const (
	// MaxBatchSize is the largest number of images accepted in one batch.
	MaxBatchSize = 10

	defaultWorkers   = 3
	maxWorkers       = 5
	defaultRateLimit = 5.0
)

// Image is one uploaded file to classify.
type Image struct {
	Filename string
	Data     []byte
}

// DetectResult is the outcome for a single image. Results keep the order of the input.
type DetectResult struct {
	Index      int            `json:"index"`
	Filename   string         `json:"filename"`
	Success    bool           `json:"success"`
	Emotion    models.Emotion `json:"emotion,omitempty"`
	Emoji      string         `json:"emoji,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// BatchResult summarises a batch.
type BatchResult struct {
	Total      int            `json:"total"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	Results    []DetectResult `json:"results"`
}

// BatchOpts contains configuration for batch detection.
type BatchOpts struct {
	NumWorkers int     // Concurrent workers (default: 3, max: 5)
	RateLimit  float64 // Classifier requests per second (default: 5)
}

// DetectEngine classifies images with a [services.EmotionClassifier].
type DetectEngine struct {
	classifier services.EmotionClassifier
}

// NewDetectEngine creates a new DetectEngine with the provided classifier.
func NewDetectEngine(classifier services.EmotionClassifier) *DetectEngine {
	return &DetectEngine{classifier: classifier}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *DetectEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Configured reports whether a classifier is attached.
func (e *DetectEngine) Configured() bool {
	return e.classifier != nil
}

// Detect classifies a single image.
func (e *DetectEngine) Detect(ctx context.Context, img Image) (*services.EmotionPrediction, error) {
	if e.classifier == nil {
		return nil, fmt.Errorf("%w: emotion classifier not configured", shared.ErrServiceUnavailable)
	}
	if err := services.ValidateImage(img.Filename, len(img.Data)); err != nil {
		return nil, err
	}
	return e.classifier.Classify(ctx, img.Filename, img.Data)
}

type detectJob struct {
	index int
	image Image
}

// BatchDetect classifies up to [MaxBatchSize] images concurrently.
//
// A failing image is reported in its result and does not stop the batch. Cancelling ctx stops dispatching;
// images not yet started are reported as failed.
func (e *DetectEngine) BatchDetect(ctx context.Context, prog chan<- ProgressUpdate, images []Image, opts BatchOpts) (*BatchResult, error) {
	if e.classifier == nil {
		return nil, fmt.Errorf("%w: emotion classifier not configured", shared.ErrServiceUnavailable)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no images provided", shared.ErrMissingArgument)
	}
	if len(images) > MaxBatchSize {
		return nil, fmt.Errorf("%w: at most %d images per batch, got %d", shared.ErrInvalidInput, MaxBatchSize, len(images))
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	total := len(images)

	result := &BatchResult{Total: total, Results: make([]DetectResult, total)}
	for i, img := range images {
		result.Results[i] = DetectResult{Index: i, Filename: img.Filename, Error: "not processed"}
	}

	jobs := make(chan detectJob, total)
	results := make(chan DetectResult, total)

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.detectWorker(ctx, &wg, limiter, jobs, results)
	}

	e.sendProgress(prog, queuedUpdate(total))
	go func() {
		defer close(jobs)
		for i, img := range images {
			select {
			case <-ctx.Done():
				return
			case jobs <- detectJob{index: i, image: img}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results[res.Index] = res

		if res.Success {
			e.sendProgress(prog, detectCompletedUpdate(completed, total, res))
		} else {
			e.sendProgress(prog, detectFailedUpdate(completed, total, res))
		}
	}

	for _, res := range result.Results {
		if res.Success {
			result.Successful++
		} else {
			result.Failed++
		}
	}
	return result, nil
}

// detectWorker is a worker goroutine that classifies images from the jobs channel.
func (e *DetectEngine) detectWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan detectJob,
	results chan<- DetectResult,
) {
	defer wg.Done()

	for job := range jobs {
		res := DetectResult{Index: job.index, Filename: job.image.Filename}

		if err := limiter.Wait(ctx); err != nil {
			res.Error = fmt.Sprintf("cancelled: %v", err)
			results <- res
			continue
		}

		prediction, err := e.Detect(ctx, job.image)
		if err != nil {
			res.Error = err.Error()
			results <- res
			continue
		}

		emotion := models.NormalizeEmotion(prediction.Emotion)
		res.Success = true
		res.Emotion = emotion
		res.Emoji = emotion.Emoji()
		res.Confidence = prediction.Confidence
		results <- res
	}
}
