package extract

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func strptr(s string) *string { return &s }

func TestNormalize_FencedJSON(t *testing.T) {
	raw := "```json\n{\"meter_reading\":\"00123\",\"register_type\":\"kWh\",\"serial_number\":\"12345678\",\"confidence\":\"high\",\"notes\":\"\"}\n```"

	got := Normalize(raw)

	if got.Reading == nil || *got.Reading != "00123" {
		t.Errorf("Reading: got %v, want 00123", got.Reading)
	}
	if got.Unit == nil || *got.Unit != "kWh" {
		t.Errorf("Unit: got %v, want kWh", got.Unit)
	}
	if got.SerialNumber == nil || *got.SerialNumber != "12345678" {
		t.Errorf("SerialNumber: got %v, want 12345678", got.SerialNumber)
	}
	if got.Confidence != ConfidenceHigh {
		t.Errorf("Confidence: got %q, want high", got.Confidence)
	}
	if got.Notes != "" {
		t.Errorf("Notes: got %q, want empty", got.Notes)
	}
}

func TestNormalize_Prose(t *testing.T) {
	got := Normalize("I cannot read this image")

	if got.Reading != nil || got.Unit != nil || got.SerialNumber != nil {
		t.Errorf("identification fields should be null, got %+v", got)
	}
	if got.Confidence != ConfidenceLow {
		t.Errorf("Confidence: got %q, want low", got.Confidence)
	}
	if got.Notes == "" {
		t.Error("Notes: want non-empty diagnostic copy of the raw text")
	}
	if !strings.Contains(got.Notes, "cannot read") {
		t.Errorf("Notes should carry the raw text, got %q", got.Notes)
	}
}

func TestNormalize_Variants(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		reading    *string
		confidence Confidence
	}{
		{
			name:       "strict json",
			raw:        `{"meter_reading":"42","confidence":"medium"}`,
			reading:    strptr("42"),
			confidence: ConfidenceMedium,
		},
		{
			name:       "fence without language tag",
			raw:        "```\n{\"meter_reading\":\"7\"}\n```",
			reading:    strptr("7"),
			confidence: ConfidenceLow,
		},
		{
			name:       "missing keys filled with defaults",
			raw:        `{}`,
			reading:    nil,
			confidence: ConfidenceLow,
		},
		{
			name:       "unknown confidence maps to low",
			raw:        `{"confidence":"very sure"}`,
			reading:    nil,
			confidence: ConfidenceLow,
		},
		{
			name:       "uppercase confidence",
			raw:        `{"confidence":"HIGH"}`,
			reading:    nil,
			confidence: ConfidenceHigh,
		},
		{
			name:       "empty input",
			raw:        "",
			reading:    nil,
			confidence: ConfidenceLow,
		},
		{
			name:       "truncated json",
			raw:        `{"meter_reading":"001`,
			reading:    nil,
			confidence: ConfidenceLow,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.raw)

			if tc.reading == nil {
				if got.Reading != nil {
					t.Errorf("Reading: got %q, want nil", *got.Reading)
				}
			} else if got.Reading == nil || *got.Reading != *tc.reading {
				t.Errorf("Reading: got %v, want %q", got.Reading, *tc.reading)
			}
			if got.Confidence != tc.confidence {
				t.Errorf("Confidence: got %q, want %q", got.Confidence, tc.confidence)
			}
		})
	}
}

func TestNormalize_EmptyInputHasDiagnosticNote(t *testing.T) {
	got := Normalize("")
	if got.Notes == "" {
		t.Error("Notes: want non-empty note for empty response")
	}
}

func TestNormalize_TruncatesLongDiagnostics(t *testing.T) {
	raw := strings.Repeat("x", 5000)
	got := Normalize(raw)
	if len(got.Notes) > maxDiagnosticNotes {
		t.Errorf("Notes length: got %d, want <= %d", len(got.Notes), maxDiagnosticNotes)
	}
}

func TestNormalize_TruncationKeepsValidUTF8(t *testing.T) {
	// A multi-byte rune straddling the truncation boundary must be
	// dropped whole, not split into invalid bytes.
	raw := strings.Repeat("x", maxDiagnosticNotes-1) + "日本語"
	got := Normalize(raw)

	if len(got.Notes) > maxDiagnosticNotes {
		t.Errorf("Notes length: got %d, want <= %d", len(got.Notes), maxDiagnosticNotes)
	}
	if !utf8.ValidString(got.Notes) {
		t.Errorf("Notes is not valid UTF-8: %q", got.Notes)
	}
	if !strings.HasSuffix(got.Notes, "x") {
		t.Errorf("Notes should end on the last whole rune, got %q", got.Notes[len(got.Notes)-4:])
	}
}

func TestParseConfidence(t *testing.T) {
	tests := []struct {
		in   string
		want Confidence
	}{
		{"low", ConfidenceLow},
		{"medium", ConfidenceMedium},
		{"high", ConfidenceHigh},
		{" High ", ConfidenceHigh},
		{"", ConfidenceLow},
		{"certain", ConfidenceLow},
	}
	for _, tc := range tests {
		if got := ParseConfidence(tc.in); got != tc.want {
			t.Errorf("ParseConfidence(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}
