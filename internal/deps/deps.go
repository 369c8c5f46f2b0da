package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"highlighter/internal/config"
)

// Requirement is an external binary a run invokes.
type Requirement struct {
	Name        string
	Command     string
	Description string
	// Optional binaries only degrade a run when missing.
	Optional bool
}

// Status is a Requirement plus the result of looking it up on PATH.
type Status struct {
	Requirement
	Available bool
	// Path is the resolved executable when Available.
	Path   string
	Detail string
}

// Requirements lists the binaries a run needs for cfg. The subject detector
// is included only when a command is configured.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{Name: "FFmpeg", Command: cfg.Encoder.FFmpegBinary, Description: "normalizes, cuts and encodes video"},
		{Name: "FFprobe", Command: cfg.Encoder.FFprobeBinary, Description: "reads durations and verifies outputs"},
	}
	if argv := strings.Fields(cfg.Signals.SubjectCommand); len(argv) > 0 {
		reqs = append(reqs, Requirement{
			Name:        "Subject detector",
			Command:     argv[0],
			Description: "counts people in sampled frames",
			Optional:    true,
		})
	}
	return reqs
}

// CheckBinaries resolves every requirement against PATH.
func CheckBinaries(reqs []Requirement) []Status {
	out := make([]Status, len(reqs))
	for i, req := range reqs {
		req.Command = strings.TrimSpace(req.Command)
		out[i] = lookup(req)
	}
	return out
}

func lookup(req Requirement) Status {
	st := Status{Requirement: req}
	if req.Command == "" {
		st.Detail = "command not configured"
		return st
	}
	path, err := exec.LookPath(req.Command)
	if err != nil {
		st.Detail = fmt.Sprintf("binary %q not found on PATH", req.Command)
		return st
	}
	st.Available, st.Path = true, path
	return st
}

// MissingRequired filters statuses down to unavailable required binaries.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, st := range statuses {
		if !st.Available && !st.Optional {
			missing = append(missing, st)
		}
	}
	return missing
}
