// Package models defines the persistent and transient records of the EmoTune service.
//
// # Persistent records
//
// [User] rows form the identity store. [SessionToken], [ResetCode] and [LikedSong]
// rows belong to a user and are removed with it (ON DELETE CASCADE).
// Each implements [Model] so repositories can validate before writing.
//
// # Transient records
//
// [Track] is produced by the recommendation pipeline and catalog search and is never stored.
// Title and Artist are mandatory; catalog-only fields are omitted from JSON when empty.
//
// # Emotions
//
// [Emotion] is the closed set of labels the recommendation pipeline understands.
// [ParseEmotion] accepts synonyms such as "fear" and "disgust"; [NormalizeEmotion] maps
// anything unrecognised to [Neutral].
package models
