package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trp_review/review"
)

func TestTrailAppendAndSummary(t *testing.T) {
	dir := t.TempDir()
	trail, err := NewTrail(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(trail.Path()))
	assert.True(t, strings.HasSuffix(trail.Path(), ".txt"))

	lp := review.Loop{
		Index:    1,
		Input:    "Draft text.",
		Critique: "The claim lacks evidence.",
		Revision: "Revised text.",
		Verdict:  review.Verdict{Converged: false, Rationale: "Continuing refinement (substantive issues remain)."},
	}
	require.NoError(t, trail.AppendLoop(lp))
	require.NoError(t, trail.WriteSummary(1, "Reviewer indicated no substantive issues remain."))

	data, err := os.ReadFile(trail.Path())
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "Loop 1\n")
	assert.Contains(t, content, "Input Document:\nDraft text.")
	assert.Contains(t, content, "Critique:\nThe claim lacks evidence.")
	assert.Contains(t, content, "Revision:\nRevised text.")
	assert.Contains(t, content, "Stopping evaluation: Continuing refinement")
	assert.Contains(t, content, "---\nTotal loops completed: 1\n")
	assert.Contains(t, content, "Stopping reason: Reviewer indicated no substantive issues remain.")
}

func TestTrailSummaryOmitsEmptyReason(t *testing.T) {
	trail, err := NewTrail(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, trail.WriteSummary(2, ""))

	data, err := os.ReadFile(trail.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Stopping reason:")
}

func TestAppendStartupEvent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, AppendStartupEvent(dir, "warning", "OPENAI_API_KEY is not set."))
	require.NoError(t, AppendStartupEvent(dir, "info", "Loaded config."))

	data, err := os.ReadFile(filepath.Join(dir, "startup.log"))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "[WARNING] OPENAI_API_KEY is not set.")
	assert.Contains(t, content, "[INFO] Loaded config.")
	// Lines carry a timestamp prefix.
	assert.Contains(t, content, time.Now().Format("2006-01-02"))
}

func TestWriteHTML(t *testing.T) {
	sess := &review.Session{
		ID:         "abc123",
		Original:   "# Draft\n\nOriginal body.",
		Final:      "# Draft\n\nFinal body.",
		StopReason: "Reviewer indicated no substantive issues remain.",
		Converged:  true,
		Loops: []review.Loop{
			{
				Index:    1,
				Input:    "# Draft\n\nOriginal body.",
				Critique: "The *claim* lacks evidence.",
				Revision: "# Draft\n\nFinal body.",
				Verdict:  review.Verdict{Converged: true, Rationale: "Reviewer indicated no substantive issues remain."},
			},
		},
	}

	var sb strings.Builder
	require.NoError(t, WriteHTML(&sb, sess))
	out := sb.String()

	assert.Contains(t, out, "Review abc123")
	assert.Contains(t, out, "<em>claim</em>")
	assert.Contains(t, out, "<h1>Draft</h1>")
	assert.Contains(t, out, "no substantive issues remain")
}

func TestWriteHTMLNilSession(t *testing.T) {
	var sb strings.Builder
	require.Error(t, WriteHTML(&sb, nil))
}
