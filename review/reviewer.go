package review

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"trp_review/observability"
)

const (
	// DefaultMaxLoops bounds the cost of a review when the caller gives no cap.
	DefaultMaxLoops = 5
	// MaxLoopCeiling is the hard safety limit no caller override may exceed.
	MaxLoopCeiling = 10
)

// Options tunes a Reviewer. The zero value is usable.
type Options struct {
	Policy           StopPolicy  // nil → DefaultStopPolicy
	Trail            TrailWriter // nil → no on-disk audit trail
	MaxDocumentBytes int         // 0 → no size limit
	Logger           *log.Logger // nil → log.Default()
}

// Reviewer runs the critique→revise→evaluate loop against an LLM until the
// stop policy reports convergence or the loop cap is reached.
type Reviewer struct {
	llm         LLMClient
	policy      StopPolicy
	trail       TrailWriter
	maxDocBytes int
	logger      *log.Logger
}

func NewReviewer(llm LLMClient, opts Options) (*Reviewer, error) {
	if llm == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	policy := opts.Policy
	if policy == nil {
		policy = DefaultStopPolicy
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Reviewer{
		llm:         llm,
		policy:      policy,
		trail:       opts.Trail,
		maxDocBytes: opts.MaxDocumentBytes,
		logger:      logger,
	}, nil
}

// Run reviews the document for at most maxLoops iterations. maxLoops ≤ 0
// selects DefaultMaxLoops; values above MaxLoopCeiling are clamped.
//
// On a mid-loop LLM failure Run returns the partial session together with a
// *StepError: every loop completed before the failure is preserved. A session
// is only nil when the input was rejected before the first LLM call.
func (r *Reviewer) Run(ctx context.Context, document string, maxLoops int) (*Session, error) {
	document = strings.TrimSpace(document)
	if document == "" {
		return nil, ErrEmptyDocument
	}
	if r.maxDocBytes > 0 && len(document) > r.maxDocBytes {
		return nil, fmt.Errorf("%w (%d bytes, limit %d)", ErrDocumentTooLarge, len(document), r.maxDocBytes)
	}
	if maxLoops <= 0 {
		maxLoops = DefaultMaxLoops
	}
	if maxLoops > MaxLoopCeiling {
		maxLoops = MaxLoopCeiling
	}

	sess := &Session{
		ID:        uuid.NewString(),
		Original:  document,
		Final:     document,
		CreatedAt: time.Now(),
	}

	current := document
	previousCritique := ""
	for i := 1; i <= maxLoops; i++ {
		if err := ctx.Err(); err != nil {
			r.finish(sess, "error")
			return sess, fmt.Errorf("review cancelled before loop %d: %w", i, err)
		}

		critique, err := r.complete(ctx, StepCritique, i, BuildCritiquePrompt(current))
		if err != nil {
			r.finish(sess, "error")
			return sess, err
		}
		revision, err := r.complete(ctx, StepRevision, i, BuildRevisionPrompt(current, critique))
		if err != nil {
			r.finish(sess, "error")
			return sess, err
		}
		evaluation, err := r.complete(ctx, StepEvaluation, i, BuildEvaluationPrompt(critique, previousCritique))
		if err != nil {
			r.finish(sess, "error")
			return sess, err
		}

		converged, rationale := r.policy(critique, evaluation)
		if !converged && i == maxLoops {
			rationale = fmt.Sprintf("Iteration limit reached (%d loops) without convergence.", maxLoops)
		}
		lp := Loop{
			Index:      i,
			Input:      current,
			Critique:   critique,
			Revision:   revision,
			Evaluation: evaluation,
			Verdict:    Verdict{Converged: converged, Rationale: rationale},
		}
		sess.Loops = append(sess.Loops, lp)
		r.appendTrail(lp)

		current = revision
		sess.Final = revision
		if converged {
			sess.Converged = true
			sess.StopReason = rationale
			break
		}
		previousCritique = critique
	}

	if !sess.Converged {
		sess.CappedOut = true
		sess.StopReason = fmt.Sprintf("Iteration limit reached (%d loops) without convergence.", maxLoops)
	}
	outcome := "capped"
	if sess.Converged {
		outcome = "converged"
	}
	r.finish(sess, outcome)
	return sess, nil
}

func (r *Reviewer) complete(ctx context.Context, step Step, loop int, prompt Prompt) (string, error) {
	start := time.Now()
	raw, err := r.llm.Complete(ctx, prompt)
	observability.ObserveLLMCall(string(step), err, time.Since(start))
	if err != nil {
		return "", &StepError{Step: step, Loop: loop, Err: err}
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", &StepError{Step: step, Loop: loop, Err: fmt.Errorf("model returned empty text")}
	}
	return text, nil
}

// appendTrail writes the loop record to the audit trail. Trail failures are
// logged but never fail the review; the in-memory session stays authoritative.
func (r *Reviewer) appendTrail(lp Loop) {
	if r.trail == nil {
		return
	}
	if err := r.trail.AppendLoop(lp); err != nil {
		r.logger.Printf("[review] audit trail append failed (loop %d): %v", lp.Index, err)
	}
}

func (r *Reviewer) finish(sess *Session, outcome string) {
	observability.ObserveReview(outcome, len(sess.Loops))
	if r.trail == nil || len(sess.Loops) == 0 {
		return
	}
	reason := sess.StopReason
	if reason == "" {
		reason = "Stopped due to a generation error."
	}
	if err := r.trail.WriteSummary(len(sess.Loops), reason); err != nil {
		r.logger.Printf("[review] audit trail summary failed: %v", err)
	}
}
