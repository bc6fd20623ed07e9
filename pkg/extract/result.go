// Package extract talks to the external vision-extraction boundary and
// normalizes its untrusted textual responses into fixed-shape records.
package extract

// Confidence grades how much to trust an extraction.
type Confidence string

// Confidence levels. Anything unrecognized normalizes to low.
const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Result is the fixed-shape extraction record. Every field is always
// populated: nil means the model reported nothing for that field, never
// that the key was omitted from the record.
type Result struct {
	// Reading is the register value as displayed, digits preserved
	// verbatim (leading zeros matter on mechanical registers).
	Reading *string `json:"reading"`

	// Unit is the register type, e.g. "kWh" or "m3".
	Unit *string `json:"unit"`

	// SerialNumber is the meter's serial/identification number.
	SerialNumber *string `json:"serial_number"`

	// Confidence is the model's self-reported certainty.
	Confidence Confidence `json:"confidence"`

	// Notes carries free-text remarks, or a diagnostic copy of the raw
	// response when parsing failed.
	Notes string `json:"notes"`
}

// DefaultResult returns the safe fallback record: all identification
// fields null, low confidence, the given diagnostic note.
func DefaultResult(notes string) Result {
	return Result{Confidence: ConfidenceLow, Notes: notes}
}

// ParseConfidence maps an arbitrary string onto a Confidence level.
func ParseConfidence(s string) Confidence {
	switch Confidence(normalizeToken(s)) {
	case ConfidenceMedium:
		return ConfidenceMedium
	case ConfidenceHigh:
		return ConfidenceHigh
	default:
		return ConfidenceLow
	}
}
