// Package recommend maps a detected emotion to music.
//
// The [Orchestrator] normalises the emotion label, picks seed genres and a catalog market, and asks the
// catalog for tracks under a fixed deadline:
//
//	emotion ─► genres ─┐
//	language ─► market ┼─► cache? ─► singleflight ─► catalog (timeout) ─► tracks
//	limit (1..20) ─────┘                                    │
//	                                                        └─ error / timeout / empty ─► fallback table
//
// Fallback answers are deterministic: the built-in table for the emotion is cycled until limit tracks are
// produced. Every returned track has a title and an artist; catalog ids and previews only appear when
// [Result.Source] is [SourceCatalog].
package recommend
