package question

import (
	"regexp"
	"strconv"
	"strings"
)

// PenaltyRegime is a parsed penalty progression, e.g. "10, 20, ...".
// The Nth wrong submission costs the Nth term percent, capped at 100.
type PenaltyRegime struct {
	terms  []float64
	extend bool // trailing "...": continue the last arithmetic step
}

var penaltySepRe = regexp.MustCompile(`[,\s]+`)

// ParsePenaltyRegime parses and validates a penalty regime string:
// percent-or-plain numbers separated by commas and/or whitespace,
// optionally terminated by a literal "...". The "..." requires at least
// two preceding terms, strictly increasing, so the step is defined.
func ParsePenaltyRegime(regime string) (*PenaltyRegime, error) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(regime, "%", ""))
	if trimmed == "" {
		return nil, ErrEmptyPenaltyRegime()
	}
	bits := penaltySepRe.Split(trimmed, -1)
	pr := &PenaltyRegime{}
	if bits[len(bits)-1] == "..." {
		pr.extend = true
		bits = bits[:len(bits)-1]
	}
	for _, bit := range bits {
		v, err := strconv.ParseFloat(bit, 64)
		if err != nil || v < 0 {
			return nil, ErrBadPenaltyRegime()
		}
		pr.terms = append(pr.terms, v)
	}
	if pr.extend {
		n := len(pr.terms)
		if n < 2 || pr.terms[n-1] <= pr.terms[n-2] {
			return nil, ErrBadDotDotDot()
		}
	}
	if len(pr.terms) == 0 {
		return nil, ErrEmptyPenaltyRegime()
	}
	return pr, nil
}

// PenaltyFor returns the penalty percent applied after prevTries wrong
// submissions. Zero prior tries means no penalty.
func (pr *PenaltyRegime) PenaltyFor(prevTries int) float64 {
	if prevTries <= 0 {
		return 0
	}
	n := len(pr.terms)
	idx := prevTries - 1
	var penalty float64
	if idx < n {
		penalty = pr.terms[idx]
	} else if pr.extend {
		step := pr.terms[n-1] - pr.terms[n-2]
		penalty = pr.terms[n-1] + float64(idx-n+1)*step
	} else {
		penalty = pr.terms[n-1]
	}
	if penalty > 100 {
		penalty = 100
	}
	return penalty
}

// AdjustedFraction applies the regime to a raw mark fraction.
func (pr *PenaltyRegime) AdjustedFraction(fraction float64, prevTries int) float64 {
	adjusted := fraction - pr.PenaltyFor(prevTries)/100.0
	if adjusted < 0 {
		return 0
	}
	return adjusted
}
