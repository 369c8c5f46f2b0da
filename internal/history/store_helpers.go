package history

import (
	"database/sql"
	"errors"
	"time"
)

const runColumns = `id, run_id, input_dir, status, started_at, finished_at, encoder_profile,
    inputs, scenes_detected, scenes_selected, clips_built, graded,
    output_path, output_bytes, vertical_path, error_message`

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run                                       Run
		startedRaw                                string
		finishedRaw, profile, output, vertical, e sql.NullString
		graded                                    int
	)
	if err := scanner.Scan(
		&run.ID,
		&run.RunID,
		&run.InputDir,
		&run.Status,
		&startedRaw,
		&finishedRaw,
		&profile,
		&run.Inputs,
		&run.ScenesDetected,
		&run.ScenesSelected,
		&run.ClipsBuilt,
		&graded,
		&output,
		&run.OutputBytes,
		&vertical,
		&e,
	); err != nil {
		return nil, err
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	run.EncoderProfile = profile.String
	run.Graded = graded != 0
	run.OutputPath = output.String
	run.VerticalPath = vertical.String
	run.ErrorMessage = e.String
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(timeLayout)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
