package generate

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a fiction co-writer. Continue the manuscript you are given in the author's voice, tense and point of view. Keep names, places and established facts consistent with the context. Respond with the new prose only: no headings, no commentary, no summary of what came before.`

// BuildContinuationPrompt lays out the manuscript context and the author's
// instruction for the model.
func BuildContinuationPrompt(title, context, instruction string) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "Manuscript: %q\n", title)
	}
	b.WriteString("--- context ---\n")
	b.WriteString(strings.TrimSpace(context))
	b.WriteString("\n--- end of context ---\n\n")

	if instruction = strings.TrimSpace(instruction); instruction != "" {
		b.WriteString("Author's direction for the next passage: ")
		b.WriteString(instruction)
		b.WriteString("\n\n")
	}
	b.WriteString("Continue the story from where the context ends.")
	return b.String()
}
