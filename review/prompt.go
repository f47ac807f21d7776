package review

import (
	"fmt"
	"strings"
)

// Prompt is the message set sent to the LLM for one call.
type Prompt struct {
	System      string
	User        string
	Temperature *float64
}

const critiqueSystemPrompt = "You are a rigorous peer reviewer applying The Recursive Protocol (TRP). " +
	"Focus ONLY on substantive issues:\n" +
	"- Methodological gaps or logical flaws\n" +
	"- Missing evidence or unsupported claims\n" +
	"- Unclear core arguments\n" +
	"- Bias or circular reasoning\n\n" +
	"- Do NOT invent citations or information that you cannot verify with your current knowledge.\n" +
	"DO NOT critique:\n" +
	"- Minor wording choices or semantic phrasing\n" +
	"- Stylistic preferences\n" +
	"- Issues already addressed in prior revisions\n\n" +
	"If the document is methodologically sound, state: 'No substantive issues remain.'"

const revisionSystemPrompt = "You are revising a document based on peer review feedback. " +
	"Rewrite the document to address all critique points while preserving " +
	"the core content and intent. Return only the revised document text."

// BuildCritiquePrompt asks the reviewer model for a critique of the document.
func BuildCritiquePrompt(document string) Prompt {
	return Prompt{
		System: critiqueSystemPrompt,
		User:   document,
	}
}

// BuildRevisionPrompt asks for a full rewrite addressing the critique.
func BuildRevisionPrompt(document, critique string) Prompt {
	user := fmt.Sprintf(
		"Original Document:\n%s\n\nCritique:\n%s\n\nProvide the revised document:",
		document, critique,
	)
	return Prompt{
		System: revisionSystemPrompt,
		User:   user,
	}
}

// BuildEvaluationPrompt asks whether the review feedback still raises real
// methodological concerns or has devolved into nitpicking. Temperature is
// pinned to zero so the verdict is as deterministic as the model allows.
func BuildEvaluationPrompt(currentCritique, previousCritique string) Prompt {
	var sb strings.Builder
	sb.WriteString("You are evaluating whether peer review feedback represents substantive ")
	sb.WriteString("methodological concerns or has devolved into nitpicking and semantic quibbling. ")
	sb.WriteString("Respond with ONLY 'SUBSTANTIVE' or 'NITPICKING'.\n\n")
	if previousCritique != "" {
		sb.WriteString(fmt.Sprintf("Previous critique:\n%s\n\n", previousCritique))
	}
	sb.WriteString(fmt.Sprintf("Current critique:\n%s\n\n", currentCritique))
	sb.WriteString("Has the critique shifted from addressing real methodological gaps to ")
	sb.WriteString("nitpicking minor semantic issues or restating previous points?")

	zero := 0.0
	return Prompt{
		User:        sb.String(),
		Temperature: &zero,
	}
}
