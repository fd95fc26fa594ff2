package mockapi

import (
	"github.com/verte-zerg/typingfast/internal/model"
)

// Score grades a transcript the way the production backend does: every
// positional mismatch counts as an error, as does every character of length
// difference; accuracy is taken over what was typed.
func Score(original, typed string, durationS int) model.SessionResult {
	want := []rune(original)
	got := []rune(typed)

	errors := 0
	n := min(len(want), len(got))
	for i := 0; i < n; i++ {
		if want[i] != got[i] {
			errors++
		}
	}
	if len(want) > len(got) {
		errors += len(want) - len(got)
	} else {
		errors += len(got) - len(want)
	}

	correct := max(len(got)-errors, 0)
	accuracy := 0.0
	if len(got) > 0 {
		accuracy = float64(correct) / float64(len(got)) * 100
	}
	// The production scorer divides by zero here; report 0 instead.
	wpm := 0.0
	if durationS > 0 {
		wpm = (float64(correct) / 5) / (float64(durationS) / 60)
	}
	return model.SessionResult{
		WPM:            wpm,
		Accuracy:       accuracy,
		Errors:         errors,
		CorrectedChars: correct,
		Source:         model.SourceRemote,
	}
}
