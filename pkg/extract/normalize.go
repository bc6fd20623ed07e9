package extract

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// maxDiagnosticNotes bounds how much raw response text is copied into
// the fallback record's notes.
const maxDiagnosticNotes = 300

// Normalize parses the vision model's textual response into a Result.
// The upstream may return prose, markdown-fenced JSON, or strict JSON.
// Parse failure never propagates: the caller gets a safe default with
// low confidence and a truncated copy of the raw text for diagnosis.
func Normalize(raw string) Result {
	text := stripFences(raw)

	var payload struct {
		MeterReading *string `json:"meter_reading"`
		RegisterType *string `json:"register_type"`
		SerialNumber *string `json:"serial_number"`
		Confidence   string  `json:"confidence"`
		Notes        string  `json:"notes"`
	}

	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		note := truncate(strings.TrimSpace(raw), maxDiagnosticNotes)
		if note == "" {
			note = "empty response from vision model"
		}
		return DefaultResult(note)
	}

	// Missing keys land as zero values and become the documented
	// defaults; the record is never partial.
	return Result{
		Reading:      payload.MeterReading,
		Unit:         payload.RegisterType,
		SerialNumber: payload.SerialNumber,
		Confidence:   ParseConfidence(payload.Confidence),
		Notes:        payload.Notes,
	}
}

// stripFences removes markdown code-fence markers around a JSON body.
func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}

	// Drop the opening fence line (```, ```json, ...).
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = t[i+1:]
	} else {
		t = strings.TrimPrefix(t, "```")
	}

	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, "```")
	return strings.TrimSpace(t)
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// truncate shortens a string to at most maxLen bytes without splitting a
// multi-byte rune at the boundary.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen]
}
