package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/Varda003/EmoTune/internal/models"
	"github.com/Varda003/EmoTune/internal/recommend"
	"github.com/Varda003/EmoTune/internal/services"
	"github.com/Varda003/EmoTune/internal/shared"
	"github.com/Varda003/EmoTune/internal/tasks"
	"github.com/charmbracelet/log"
)

const (
	multipartMemory = 32 << 20
	formOverhead    = 1 << 20

	// maxFrameBody fits a base64 frame of the largest accepted image.
	maxFrameBody = services.MaxImageSize/3*4 + formOverhead
)

// emotionHandler forwards uploaded face images to the classifier under /api/emotion.
type emotionHandler struct {
	detector    *tasks.DetectEngine
	recommender *recommend.Orchestrator
	requireAuth Middleware
	logger      *log.Logger
}

func (h *emotionHandler) Routes() []Route {
	bearer := []Middleware{h.requireAuth}

	return []Route{
		{Method: http.MethodPost, Path: "/api/emotion/detect", Handler: h.detect, Middleware: bearer},
		{Method: http.MethodPost, Path: "/api/emotion/detect-and-recommend", Handler: h.detectAndRecommend, Middleware: bearer},
		{Method: http.MethodPost, Path: "/api/emotion/batch-detect", Handler: h.batchDetect, Middleware: bearer},
		{Method: http.MethodPost, Path: "/api/emotion/detect-live", Handler: h.detectLive, Middleware: bearer},
		{Method: http.MethodGet, Path: "/api/emotion/model-info", Handler: h.modelInfo},
	}
}

// parseUpload parses a multipart body of at most limit bytes.
func parseUpload(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: upload exceeds %d bytes", shared.ErrInvalidInput, maxErr.Limit)
		}
		return fmt.Errorf("%w: expected a multipart form: %w", shared.ErrInvalidInput, err)
	}
	return nil
}

func readImage(fh *multipart.FileHeader) (tasks.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return tasks.Image{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, services.MaxImageSize+1))
	if err != nil {
		return tasks.Image{}, fmt.Errorf("failed to read upload: %w", err)
	}
	return tasks.Image{Filename: fh.Filename, Data: data}, nil
}

// singleImage reads the "image" field of a parsed form.
func singleImage(r *http.Request) (tasks.Image, error) {
	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		return tasks.Image{}, fmt.Errorf("%w: image file is required", shared.ErrMissingArgument)
	}
	return readImage(files[0])
}

func predictionBody(p *services.EmotionPrediction) envelope {
	emotion := models.Emotion(p.Emotion)
	return envelope{
		"emotion":         emotion,
		"emoji":           emotion.Emoji(),
		"confidence":      p.Confidence,
		"all_predictions": p.AllPredictions,
	}
}

func (h *emotionHandler) detect(w http.ResponseWriter, r *http.Request) {
	if err := parseUpload(w, r, services.MaxImageSize+formOverhead); err != nil {
		writeError(w, h.logger, err)
		return
	}
	img, err := singleImage(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	prediction, err := h.detector.Detect(r.Context(), img)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, predictionBody(prediction))
}

func (h *emotionHandler) detectAndRecommend(w http.ResponseWriter, r *http.Request) {
	if err := parseUpload(w, r, services.MaxImageSize+formOverhead); err != nil {
		writeError(w, h.logger, err)
		return
	}
	limit, err := formInt(r, "limit", recommend.DefaultLimit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	img, err := singleImage(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	prediction, err := h.detector.Detect(r.Context(), img)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	result := h.recommender.Recommend(r.Context(), prediction.Emotion, r.FormValue("language"), limit)
	body := predictionBody(prediction)
	body["recommendations"] = recommendationBody(result)
	writeJSON(w, http.StatusOK, body)
}

func (h *emotionHandler) batchDetect(w http.ResponseWriter, r *http.Request) {
	if err := parseUpload(w, r, tasks.MaxBatchSize*services.MaxImageSize+formOverhead); err != nil {
		writeError(w, h.logger, err)
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		writeError(w, h.logger, fmt.Errorf("%w: images are required", shared.ErrMissingArgument))
		return
	}
	if len(files) > tasks.MaxBatchSize {
		writeError(w, h.logger, fmt.Errorf("%w: at most %d images per batch", shared.ErrInvalidInput, tasks.MaxBatchSize))
		return
	}

	images := make([]tasks.Image, 0, len(files))
	for _, fh := range files {
		img, err := readImage(fh)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		images = append(images, img)
	}

	result, err := h.detector.BatchDetect(r.Context(), nil, images, tasks.BatchOpts{})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"total":      result.Total,
		"successful": result.Successful,
		"failed":     result.Failed,
		"results":    result.Results,
	})
}

type liveFrameRequest struct {
	Frame string `json:"frame"`
}

// detectLive classifies one webcam frame sent as a base64 data URL.
func (h *emotionHandler) detectLive(w http.ResponseWriter, r *http.Request) {
	var req liveFrameRequest
	if err := decodeJSONLimit(w, r, &req, maxFrameBody); err != nil {
		writeError(w, h.logger, err)
		return
	}

	img, err := tasks.DecodeFrame(req.Frame)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	prediction, err := h.detector.Detect(r.Context(), img)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, predictionBody(prediction))
}

// modelInfo describes the labels the classifier can return and the uploads it accepts.
func (h *emotionHandler) modelInfo(w http.ResponseWriter, r *http.Request) {
	labels := models.Emotions()
	emojis := make(map[string]string, len(labels))
	for _, e := range labels {
		emojis[string(e)] = e.Emoji()
	}

	writeJSON(w, http.StatusOK, envelope{
		"model_info": envelope{
			"emotions":              labels,
			"classifier_configured": h.detector.Configured(),
			"image_types":           services.AllowedImageTypes(),
			"max_image_size":        services.MaxImageSize,
			"max_batch_size":        tasks.MaxBatchSize,
		},
		"emotion_emojis": emojis,
	})
}
