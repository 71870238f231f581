// HTTP client for the external emotion classification model
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Varda003/EmoTune/internal/models"
	"github.com/Varda003/EmoTune/internal/shared"
)

// MaxImageSize is the largest image accepted for classification.
const MaxImageSize = 16 << 20

var allowedImageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// ClassifierService posts face images to the classification model and parses its prediction.
type ClassifierService struct {
	endpoint   string
	httpClient *http.Client
}

// NewClassifierService creates a classifier client for endpoint.
func NewClassifierService(endpoint string, timeout time.Duration, client *http.Client) *ClassifierService {
	if endpoint == "" {
		endpoint = "http://127.0.0.1:8501/predict"
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &ClassifierService{
		endpoint:   endpoint,
		httpClient: client,
	}
}

// AllowedImageTypes lists the accepted file extensions in sorted order.
func AllowedImageTypes() []string {
	exts := make([]string, 0, len(allowedImageExts))
	for ext := range allowedImageExts {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ValidateImage checks the file name extension and size of an upload.
func ValidateImage(filename string, size int) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExts[ext] {
		return fmt.Errorf("%w: unsupported image type %q", shared.ErrInvalidInput, ext)
	}
	if size == 0 {
		return fmt.Errorf("%w: image %s is empty", shared.ErrInvalidInput, filename)
	}
	if size > MaxImageSize {
		return fmt.Errorf("%w: image %s exceeds %d bytes", shared.ErrInvalidInput, filename, MaxImageSize)
	}
	return nil
}

// Classify sends image as the "image" form field and returns the normalized prediction.
func (c *ClassifierService) Classify(ctx context.Context, filename string, image []byte) (*EmotionPrediction, error) {
	if err := ValidateImage(filename, len(image)); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("image", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: classifier request failed: %w", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: classifier status %d: %s", shared.ErrAPIRequest, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var prediction EmotionPrediction
	if err := json.Unmarshal(data, &prediction); err != nil {
		return nil, fmt.Errorf("%w: failed to decode prediction: %w", shared.ErrAPIRequest, err)
	}

	emotion, ok := models.ParseEmotion(prediction.Emotion)
	if !ok {
		return nil, fmt.Errorf("%w: classifier returned %q", shared.ErrAPIRequest, prediction.Emotion)
	}
	prediction.Emotion = string(emotion)
	return &prediction, nil
}
