package encoder

import (
	"slices"
	"strconv"

	"highlighter/internal/transcode"
)

// Kind names one of the two supported codec profiles.
type Kind string

const (
	Hardware Kind = "hardware"
	Software Kind = "software"
)

// Profile is an immutable codec selection. Accessors return copies.
type Profile struct {
	name        Kind
	codec       string
	args        []string
	hwaccelArgs []string
}

// Name reports which profile this is.
func (p Profile) Name() Kind { return p.name }

// Codec is the ffmpeg video encoder name.
func (p Profile) Codec() string { return p.codec }

// Args are the quality arguments emitted after "-c:v <codec>".
func (p Profile) Args() []string { return slices.Clone(p.args) }

// HWAccelArgs are the decode acceleration arguments emitted before "-i".
// Empty for the software profile.
func (p Profile) HWAccelArgs() []string { return slices.Clone(p.hwaccelArgs) }

// Accelerated reports whether the profile uses the GPU.
func (p Profile) Accelerated() bool { return p.name == Hardware }

// EncodeArgs returns "-c:v <codec> <args...>".
func (p Profile) EncodeArgs() []string {
	out := make([]string, 0, len(p.args)+2)
	out = append(out, "-c:v", p.codec)
	return append(out, p.args...)
}

// Settings are the codec knobs both profiles are built from.
type Settings struct {
	HardwareCodec string
	SoftwareCodec string
	Quality       int
	Preset        string
}

// HardwareProfile builds the GPU profile: "-rc vbr -cq Q -preset P" with
// CUDA decode.
func HardwareProfile(s Settings) Profile {
	return Profile{
		name:        Hardware,
		codec:       s.HardwareCodec,
		args:        []string{"-rc", "vbr", "-cq", strconv.Itoa(s.Quality), "-preset", s.Preset},
		hwaccelArgs: []string{"-hwaccel", "cuda"},
	}
}

// SoftwareProfile builds the CPU profile: "-preset P -crf Q".
func SoftwareProfile(s Settings) Profile {
	return Profile{
		name:  Software,
		codec: s.SoftwareCodec,
		args:  []string{"-preset", s.Preset, "-crf", strconv.Itoa(s.Quality)},
	}
}

// RetryPolicy derives the runtime fallback rules from both profiles.
func RetryPolicy(s Settings) transcode.RetryPolicy {
	hw := HardwareProfile(s)
	sw := SoftwareProfile(s)
	return transcode.RetryPolicy{
		HardwareCodec: hw.codec,
		SoftwareCodec: sw.codec,
		HardwareArgs:  hw.Args(),
		SoftwareArgs:  sw.Args(),
	}
}

// AudioArgs encode the single stereo AAC track every intermediate carries so
// concatenated pieces share one audio layout.
func AudioArgs() []string {
	return []string{"-c:a", "aac", "-b:a", "192k", "-ar", "48000", "-ac", "2"}
}

// SilentAudioInput is a generated input producing silence in the AudioArgs
// layout. Pair it with "-shortest" so it ends with the video.
func SilentAudioInput() []string {
	return []string{"-f", "lavfi", "-i", "anullsrc=channel_layout=stereo:sample_rate=48000"}
}
