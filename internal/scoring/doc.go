// Package scoring turns per-scene visual signals into a single highlight score
// and picks the top fraction of scenes.
//
// Score is a pure function. Scorer fans the extractor calls out over a
// bounded worker pool and records one ScoredScene per detected range, keeping
// detection order so Select can break ties stably.
package scoring
