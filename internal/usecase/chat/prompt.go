package chat

import "strings"

// DefaultPersona is the assistant identity used when config leaves it empty.
const DefaultPersona = "You are a helpful insurance policy assistant."

const formattingRules = "Answer clearly and concisely. Use plain text without markdown headings."

const evidenceInstruction = "Please provide an answer based only on the provided documents. " +
	"If the answer is not found in the documents, respond with 'I'm not sure'."

// buildSystemPrompt assembles the fixed system instruction: persona,
// formatting rules, the evidence block (when any), and formatted history.
func buildSystemPrompt(persona string, evidence []string, history string) string {
	if persona == "" {
		persona = DefaultPersona
	}

	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\n")
	b.WriteString(formattingRules)

	if len(evidence) > 0 {
		b.WriteString("\n\nRelevant documents:\n")
		b.WriteString(strings.Join(evidence, "\n\n"))
		b.WriteString("\n\n")
		b.WriteString(evidenceInstruction)
	}

	if history != "" {
		b.WriteString("\n\n")
		b.WriteString(history)
	}

	return b.String()
}
