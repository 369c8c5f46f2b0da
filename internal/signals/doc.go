// Package signals measures per-scene visual signals.
//
// Extractor exposes one method per signal: sharpness, brightness, subject
// count, frame-difference motion, and camera motion. The default
// FrameExtractor decodes each scene once through ffmpeg (every Nth frame,
// downscaled), converts frames to luma with imaging, and derives every signal
// from that single pass. CameraCache memoizes camera motion by time range so
// the scorer and the clip pipeline share one computation per scene.
package signals
