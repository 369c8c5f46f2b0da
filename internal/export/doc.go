// Package export derives secondary renditions from the finished highlight.
// The vertical 9:16 export removes letterboxing first when drapto's crop
// detection finds it, then center-crops and scales to 1080x1920 in one pass.
package export
