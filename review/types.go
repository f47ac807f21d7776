package review

import "time"

// Verdict is the stop/continue decision recorded for one loop.
type Verdict struct {
	Converged bool   `json:"converged"`
	Rationale string `json:"rationale"`
}

// Loop records one full critique→revise→evaluate cycle. Loops are append-only:
// once a loop is added to a session it is never mutated or removed.
type Loop struct {
	Index      int     `json:"index"`
	Input      string  `json:"input"`
	Critique   string  `json:"critique"`
	Revision   string  `json:"revision"`
	Evaluation string  `json:"evaluation"`
	Verdict    Verdict `json:"verdict"`
}

// Session holds the ordered loop records for one review plus the original and
// final document text. The input of loop N+1 is always the revision of loop N.
type Session struct {
	ID         string    `json:"id"`
	Original   string    `json:"original"`
	Final      string    `json:"final"`
	Loops      []Loop    `json:"loops"`
	StopReason string    `json:"stop_reason"`
	Converged  bool      `json:"converged"`
	CappedOut  bool      `json:"capped_out"`
	CreatedAt  time.Time `json:"created_at"`
}

// TrailWriter receives loop records as they complete, before the stop decision
// is acted on. Implementations append to durable audit storage.
type TrailWriter interface {
	AppendLoop(lp Loop) error
	WriteSummary(totalLoops int, stopReason string) error
}
