// Package clips cuts the selected scenes out of the merged source.
//
// Each scene is first classified by its camera motion: shaky scenes are
// dropped, near-static scenes are sped up with audio removed, everything else
// is cut at its original speed. Cuts run on a bounded pool through the
// resilient executor; the first hard failure aborts the batch and removes
// every clip already written.
package clips
