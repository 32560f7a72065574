package domain

// Mode selects how context is assembled.
type Mode string

// Available assembly modes.
const (
	// ModeQA favours the few chunks closest to a question.
	ModeQA Mode = "qa"

	// ModeSummary favours broad page coverage of the named document.
	ModeSummary Mode = "summary"
)

// IsValid returns true if the mode is recognised.
func (m Mode) IsValid() bool {
	return m == ModeQA || m == ModeSummary
}

// String returns the string representation.
func (m Mode) String() string {
	return string(m)
}

// ParseMode converts user input to a Mode. Empty input selects ModeQA.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeQA, nil
	}
	m := Mode(s)
	if !m.IsValid() {
		return "", ErrInvalidInput
	}
	return m, nil
}

// AssembleOptions are the caller-facing knobs of context assembly.
// Zero values fall back to the configured retrieval defaults.
type AssembleOptions struct {
	K            int
	MaxChars     int
	MaxPerSource int
	Mode         Mode
}

// AssembledContext is the formatted context handed to an LLM.
type AssembledContext struct {
	// Text is the formatted snippets joined by blank lines. Empty when nothing matched.
	Text string `json:"text"`

	// Citations parallels the kept snippets, deduplicated by source and page.
	Citations []Citation `json:"citations"`

	// Snippets is the number of chunks written into Text.
	Snippets int `json:"snippets"`

	// PreferredSources lists the documents the query was narrowed to, if any.
	PreferredSources []string `json:"preferred_sources,omitempty"`
}

// IsEmpty reports whether no context was found.
func (c *AssembledContext) IsEmpty() bool {
	return c == nil || c.Text == ""
}

// Intent is what a query appears to ask for.
type Intent struct {
	Roles      []string
	Categories []string
	DocTypes   []string
}

// IsEmpty reports whether no intent was detected.
func (i Intent) IsEmpty() bool {
	return len(i.Roles) == 0 && len(i.Categories) == 0 && len(i.DocTypes) == 0
}

// Answer is a grounded LLM response.
type Answer struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`

	// Grounded is false when no context could be retrieved.
	Grounded bool `json:"grounded"`
}
