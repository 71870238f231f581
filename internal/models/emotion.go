package models

import "strings"

// Emotion is a canonical emotion label.
type Emotion string

const (
	Happy     Emotion = "happy"
	Sad       Emotion = "sad"
	Angry     Emotion = "angry"
	Neutral   Emotion = "neutral"
	Surprised Emotion = "surprised"
	Fearful   Emotion = "fearful"
	Disgusted Emotion = "disgusted"
)

// Emotions lists the canonical labels in a stable order.
func Emotions() []Emotion {
	return []Emotion{Happy, Sad, Angry, Neutral, Surprised, Fearful, Disgusted}
}

var emotionSynonyms = map[string]Emotion{
	"fear":     Fearful,
	"afraid":   Fearful,
	"disgust":  Disgusted,
	"surprise": Surprised,
	"joy":      Happy,
	"anger":    Angry,
	"sadness":  Sad,
	"calm":     Neutral,
}

var emotionEmoji = map[Emotion]string{
	Happy:     "😊",
	Sad:       "😢",
	Angry:     "😠",
	Neutral:   "😐",
	Surprised: "😲",
	Fearful:   "😨",
	Disgusted: "🤢",
}

// ParseEmotion maps a raw label (any case, surrounding space, known synonyms) to its canonical form.
func ParseEmotion(label string) (Emotion, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	for _, e := range Emotions() {
		if string(e) == l {
			return e, true
		}
	}
	if e, ok := emotionSynonyms[l]; ok {
		return e, true
	}
	return "", false
}

// NormalizeEmotion is [ParseEmotion] with unknown labels mapped to [Neutral].
func NormalizeEmotion(label string) Emotion {
	if e, ok := ParseEmotion(label); ok {
		return e
	}
	return Neutral
}

// EmotionTag canonicalises a label for storage, keeping unknown labels lowercased rather than rewriting them.
func EmotionTag(label string) string {
	if e, ok := ParseEmotion(label); ok {
		return string(e)
	}
	return strings.ToLower(strings.TrimSpace(label))
}

// Emoji returns the emoji shown next to the emotion.
func (e Emotion) Emoji() string {
	if s, ok := emotionEmoji[e]; ok {
		return s
	}
	return emotionEmoji[Neutral]
}

func (e Emotion) String() string { return string(e) }
