package logging

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"
)

const (
	infoAttrLimit   = 8
	infoValueMaxLen = 120
	errorValueLimit = 200
)

type infoField struct {
	label string
	value string
}

// fieldLabel lists the keys shown first on info lines, in display order.
// Keys not listed keep their record order after these.
var fieldLabel = []struct{ key, label string }{
	{FieldAlert, "Alert"},
	{FieldEventType, "Event"},
	{FieldDecisionType, "Decision"},
	{FieldDecisionResult, "Decision"},
	{FieldDecisionReason, "Reason"},
	{"encoder_profile", "Encoder"},
	{"encoder_codec", "Codec"},
	{"description", "Command"},
	{"error_message", "Error Message"},
	{FieldErrorHint, "Hint"},
	{FieldImpact, "Impact"},
	{"input_dir", "Input Dir"},
	{"source_files", "Sources"},
	{"scene_count", "Scenes"},
	{"selected_count", "Selected"},
	{"clip_count", "Clips"},
	{"score", "Score"},
	{"camera_motion", "Camera Motion"},
	{"camera_instability", "Camera Instability"},
	{"speed_ramp", "Speed Ramp"},
	{"attempt", "Attempt"},
	{"lut_path", "LUT"},
	{"lut_rows", "LUT Rows"},
	{"output_path", "Output"},
	{"output_bytes", "Output Size"},
	{"vertical_path", "Vertical"},
	{"stage_duration", "Duration"},
	{"run_duration", "Duration"},
	{"removed", "Removed"},
	{"reason", "Reason"},
}

func fieldRank(key string) (int, string) {
	for i, entry := range fieldLabel {
		if entry.key == key {
			return i, entry.label
		}
	}
	return len(fieldLabel), titleizeKey(key)
}

// selectInfoFields picks up to limit fields for an info line and reports how
// many were left out. Debug-only keys and overly long values count as hidden.
func selectInfoFields(fields []kv, limit int) ([]infoField, int) {
	type ranked struct {
		rank int
		infoField
	}
	candidates := make([]ranked, 0, len(fields))
	hidden := 0
	for _, f := range fields {
		switch {
		case subjectKey(f.key):
			continue
		case debugOnlyKey(f.key):
			hidden++
			continue
		}
		value := formatValueForKey(f.key, f.value)
		if len(value) > infoValueMaxLen && !alwaysShown(f.key) {
			hidden++
			continue
		}
		rank, label := fieldRank(f.key)
		candidates = append(candidates, ranked{rank, infoField{label, value}})
	}
	slices.SortStableFunc(candidates, func(a, b ranked) int { return cmp.Compare(a.rank, b.rank) })
	if limit > 0 && len(candidates) > limit {
		hidden += len(candidates) - limit
		candidates = candidates[:limit]
	}
	out := make([]infoField, len(candidates))
	for i, c := range candidates {
		out[i] = c.infoField
	}
	return out, hidden
}

func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	case slog.KindInt64:
		if byteSizeKey(key) {
			return formatBytes(v.Int64())
		}
	case slog.KindUint64:
		if byteSizeKey(key) {
			return formatBytes(int64(v.Uint64()))
		}
	case slog.KindDuration:
		return formatDurationHuman(v.Duration())
	case slog.KindFloat64:
		if strings.HasSuffix(key, "_percent") {
			return formatPercent(v.Float64())
		}
	}
	value := formatValue(v)
	if key == "error" || key == "error_message" {
		value = strings.TrimSpace(value)
		if len(value) > errorValueLimit {
			value = value[:errorValueLimit] + "…"
		}
	}
	return value
}

func byteSizeKey(key string) bool {
	return key == "size" || strings.HasSuffix(key, "_bytes") || strings.HasSuffix(key, "_size")
}

func subjectKey(key string) bool {
	return key == "" || key == FieldRunID || key == FieldStage || key == FieldScene || key == FieldComponent
}

func alwaysShown(key string) bool {
	return key == "error" || key == "error_message" || key == "description" || key == FieldDecisionReason
}

// debugOnlyKey reports per-frame metrics and filesystem plumbing that only
// debug output lists.
func debugOnlyKey(key string) bool {
	switch key {
	case "args", "stderr_tail", "sharpness", "brightness", "subjects", "motion", "frames", "manifest_path", "work_dir":
		return true
	}
	return strings.HasPrefix(key, "ffprobe.") || (strings.HasSuffix(key, "_dir") && key != "input_dir")
}

func titleizeKey(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
