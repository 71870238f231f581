package tasks

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/Varda003/EmoTune/internal/shared"
)

var frameTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
}

// DecodeFrame turns a captured webcam frame into an [Image]. The frame is either a base64 data URL
// ("data:image/jpeg;base64,...") or bare base64, which is taken to be JPEG.
func DecodeFrame(frame string) (Image, error) {
	frame = strings.TrimSpace(frame)
	if frame == "" {
		return Image{}, fmt.Errorf("%w: frame is required", shared.ErrMissingArgument)
	}

	ext, payload := ".jpg", frame
	if rest, ok := strings.CutPrefix(frame, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		mime, isBase64 := strings.CutSuffix(meta, ";base64")
		if !found || !isBase64 {
			return Image{}, fmt.Errorf("%w: frame must be a base64 data URL", shared.ErrInvalidInput)
		}
		if ext, ok = frameTypes[strings.ToLower(mime)]; !ok {
			return Image{}, fmt.Errorf("%w: unsupported frame type %q", shared.ErrInvalidInput, mime)
		}
		payload = data
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: frame is not valid base64: %w", shared.ErrInvalidInput, err)
	}
	return Image{Filename: "frame" + ext, Data: data}, nil
}
