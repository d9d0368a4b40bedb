package domain

// Explanation is the structured record produced alongside a chat response
// when the caller asks for one. Five fields, always populated: the explainer
// degrades to FallbackExplanation instead of failing.
type Explanation struct {
	Summary     string   `json:"summary"`
	KeyPoints   []string `json:"key_points"`
	Sources     []string `json:"sources"`
	Confidence  string   `json:"confidence"`
	Limitations string   `json:"limitations"`
}

// FallbackExplanation is returned when explanation generation errors or the
// model output cannot be parsed.
func FallbackExplanation() Explanation {
	return Explanation{
		Summary:     "The answer was produced from the retrieved policy documents and the conversation so far.",
		KeyPoints:   []string{"See the cited evidence for details."},
		Sources:     []string{"retrieved documents"},
		Confidence:  "unknown",
		Limitations: "A detailed explanation could not be generated for this response.",
	}
}
