package chat

// Replies are the fixed texts the responder sends when no stored answer
// applies.
type Replies struct {
	Empty            string `json:"empty,omitempty"`
	NoAnswer         string `json:"noAnswer,omitempty"`
	Fallback         string `json:"fallback,omitempty"`
	Error            string `json:"error,omitempty"`
	SuggestionHeader string `json:"suggestionHeader,omitempty"`
}

// DefaultReplies returns the stock reply texts.
func DefaultReplies() Replies {
	return Replies{
		Empty: "I'm sorry, but I don't have any information available in my knowledge base yet. " +
			"Please contact the administration for assistance.",
		NoAnswer: "No answer available for this question.",
		Fallback: "I couldn't find a specific answer to your question in my knowledge base. " +
			"Here are some common topics I can help with:\n\n" +
			"• Academic deadlines and fees\n" +
			"• Course information\n" +
			"• Examination and results\n" +
			"• Registration procedures\n" +
			"• General university policies\n\n" +
			"Please try rephrasing your question or contact the administration directly for more specific information.",
		Error: "I'm experiencing technical difficulties. " +
			"Please try again later or contact the administration for assistance.",
		SuggestionHeader: "Did you mean:",
	}
}

// withDefaults fills blank texts from DefaultReplies.
func (r Replies) withDefaults() Replies {
	d := DefaultReplies()
	if r.Empty == "" {
		r.Empty = d.Empty
	}
	if r.NoAnswer == "" {
		r.NoAnswer = d.NoAnswer
	}
	if r.Fallback == "" {
		r.Fallback = d.Fallback
	}
	if r.Error == "" {
		r.Error = d.Error
	}
	if r.SuggestionHeader == "" {
		r.SuggestionHeader = d.SuggestionHeader
	}
	return r
}
