package review

import "strings"

// StopPolicy decides whether a loop converged, given the critique and the raw
// evaluation response for that loop. It returns the decision plus a rationale
// suitable for display. The matching rule is deliberately replaceable; callers
// with stricter needs can supply their own.
type StopPolicy func(critique, evaluation string) (converged bool, rationale string)

const (
	cleanReviewMarker = "no substantive issues"
	nitpickingMarker  = "NITPICKING"
)

// DefaultStopPolicy reproduces the keyword heuristic of the reference reviewer:
// a critique declaring no substantive issues, or an evaluation calling the
// feedback nitpicking, ends the loop.
func DefaultStopPolicy(critique, evaluation string) (bool, string) {
	if strings.Contains(strings.ToLower(critique), cleanReviewMarker) {
		return true, "Reviewer indicated no substantive issues remain."
	}
	if strings.Contains(strings.ToUpper(evaluation), nitpickingMarker) {
		return true, "Critique devolved into nitpicking rather than substantive feedback"
	}
	return false, "Continuing refinement (substantive issues remain)."
}
