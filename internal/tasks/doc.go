// Package tasks runs emotion detection over batches of uploaded images with real-time progress reporting.
//
// # Batch Detection
//
// [DetectEngine.BatchDetect] accepts up to [MaxBatchSize] images and
//   - validates each file (extension, size) before calling the classifier
//   - fans the images out to a small worker pool sharing one [rate.Limiter]
//   - records a [DetectResult] per image, in input order, whether it succeeded or not
//
// One bad image never fails the batch; only an empty or oversized batch, or a missing classifier, is an error.
//
// # Progress Reporting
//
// Progress updates are sent on an optional channel. Updates use select with default to prevent blocking, so
// a slow or absent reader never stalls detection.
package tasks
