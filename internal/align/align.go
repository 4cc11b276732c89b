// Package align pairs transcription annotations with translation annotations
// by time proximity.
package align

// DefaultToleranceMS is the maximum start and end difference, exclusive, for
// two annotations to be considered the same span.
const DefaultToleranceMS int64 = 1

// Span is a time-coded text annotation in milliseconds.
type Span struct {
	Text  string
	Start int64
	End   int64
}

// Match returns, for every transcription in order, the text of the first
// translation whose start and end both differ by less than tolerance. Rows
// with no partner get nil. A nil translations slice yields all nil results.
// Inputs are not modified. A non-positive tolerance uses DefaultToleranceMS.
func Match(transcriptions, translations []Span, tolerance int64) []*string {
	if tolerance <= 0 {
		tolerance = DefaultToleranceMS
	}
	out := make([]*string, len(transcriptions))
	if translations == nil {
		return out
	}
	for i, tx := range transcriptions {
		for j := range translations {
			tl := translations[j]
			if abs(tx.Start-tl.Start) < tolerance && abs(tx.End-tl.End) < tolerance {
				text := tl.Text
				out[i] = &text
				break
			}
		}
	}
	return out
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
