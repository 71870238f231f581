package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or HTTP layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	DetectQueued Phase = iota
	DetectImage
)

func (p Phase) String() string {
	switch p {
	case DetectQueued:
		return "detect_queued"
	case DetectImage:
		return "detect_image"
	default:
		return ""
	}
}

func queuedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DetectQueued,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Detecting emotions in %d images...", total),
	}
}

func detectCompletedUpdate(step, total int, res DetectResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DetectImage,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s: %s %s (%.0f%%)", step, total, res.Filename, res.Emoji, res.Emotion, res.Confidence*100),
		Data:    res,
	}
}

func detectFailedUpdate(step, total int, res DetectResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DetectImage,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, res.Filename, res.Error),
		Data:    res,
	}
}
