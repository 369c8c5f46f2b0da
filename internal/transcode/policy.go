package transcode

import "slices"

// Flags that select a hardware decode path. Each takes one value argument.
var hwaccelFlags = map[string]struct{}{
	"-hwaccel":               {},
	"-hwaccel_output_format": {},
	"-hwaccel_device":        {},
}

// Flags whose value can name the video codec. The bare -c and -codec forms
// apply to every stream, video included.
var videoCodecFlags = map[string]struct{}{
	"-c":       {},
	"-codec":   {},
	"-c:v":     {},
	"-codec:v": {},
	"-vcodec":  {},
}

// RetryPolicy describes how a failed command is rebuilt for its single retry.
// The zero value retries the unchanged command.
type RetryPolicy struct {
	HardwareCodec string
	SoftwareCodec string
	// HardwareArgs are the quality arguments emitted after the hardware codec.
	HardwareArgs []string
	// SoftwareArgs replace HardwareArgs in the downgraded command.
	SoftwareArgs []string
}

// Attempt is one execution of a command under a RetryPolicy.
type Attempt struct {
	Number     int
	Args       []string
	Downgraded bool
}

// First returns the initial attempt for args.
func (p RetryPolicy) First(args []string) Attempt {
	return Attempt{Number: 1, Args: slices.Clone(args)}
}

// Next returns the follow-up to a failed attempt. The first failure yields a
// downgraded attempt; a failed downgraded attempt yields ok == false.
func (p RetryPolicy) Next(prev Attempt) (Attempt, bool) {
	if prev.Downgraded || prev.Number >= 2 {
		return Attempt{}, false
	}
	return Attempt{Number: prev.Number + 1, Args: p.Downgrade(prev.Args), Downgraded: true}, true
}

// IsHardware reports whether args select hardware decoding or the hardware codec.
func (p RetryPolicy) IsHardware(args []string) bool {
	for i, arg := range args {
		if _, ok := hwaccelFlags[arg]; ok {
			return true
		}
		if _, ok := videoCodecFlags[arg]; ok && p.HardwareCodec != "" && i+1 < len(args) && args[i+1] == p.HardwareCodec {
			return true
		}
	}
	return false
}

// Downgrade returns a copy of args with every hardware acceleration flag
// removed, the hardware codec replaced by the software codec, and hardware
// quality arguments replaced by the software ones. The input is not modified
// and the result is deterministic.
func (p RetryPolicy) Downgrade(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if _, ok := hwaccelFlags[arg]; ok {
			i++ // skip the flag's value
			continue
		}
		if _, ok := videoCodecFlags[arg]; ok && i+1 < len(args) {
			value := args[i+1]
			if p.HardwareCodec != "" && value == p.HardwareCodec && p.SoftwareCodec != "" {
				value = p.SoftwareCodec
			}
			out = append(out, arg, value)
			i++
			continue
		}
		out = append(out, arg)
	}
	return replaceRun(out, p.HardwareArgs, p.SoftwareArgs)
}

// replaceRun replaces every contiguous occurrence of old in args with repl.
func replaceRun(args, old, repl []string) []string {
	if len(old) == 0 || len(args) < len(old) {
		return args
	}
	out := make([]string, 0, len(args)-len(old)+len(repl))
	for i := 0; i < len(args); {
		if i+len(old) <= len(args) && slices.Equal(args[i:i+len(old)], old) {
			out = append(out, repl...)
			i += len(old)
			continue
		}
		out = append(out, args[i])
		i++
	}
	return out
}
