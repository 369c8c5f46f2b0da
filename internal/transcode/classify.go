package transcode

import "strings"

// FailureKind classifies a failed command from its stderr.
type FailureKind string

const (
	// FailureGeneric covers every failure that is not a lost device.
	FailureGeneric FailureKind = "generic"
	// FailureDeviceLost means the GPU disappeared or its driver could not
	// initialise at runtime.
	FailureDeviceLost FailureKind = "device_lost"
)

var deviceLostMarkers = []string{
	"cuda_error_no_device",
	"cu->cuinit",
	"no cuda-capable device",
	"cannot load libnvidia",
}

// ClassifyFailure inspects stderr for runtime GPU loss markers.
func ClassifyFailure(stderr string) FailureKind {
	lower := strings.ToLower(stderr)
	for _, marker := range deviceLostMarkers {
		if strings.Contains(lower, marker) {
			return FailureDeviceLost
		}
	}
	return FailureGeneric
}

// Tail returns at most maxLines trailing non-empty lines of output.
func Tail(output string, maxLines int) string {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	kept := make([]string, 0, maxLines)
	for i := len(lines) - 1; i >= 0 && len(kept) < maxLines; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, "\n")
}
