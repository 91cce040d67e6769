package prompt

// Prompt is a named natural-language instruction sent to an LLM provider.
type Prompt struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}
