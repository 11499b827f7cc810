package models

// Reply is one outbound payload produced by a command handler. Exactly one of
// Text or Card is set. A handler may return several replies; the shell
// transmits them in order.
type Reply struct {
	Text string `json:"text,omitempty"`
	Card *Card  `json:"card,omitempty"`
}

// Card is a structured outbound message (rendered as an embed on Discord).
type Card struct {
	Title    string  `json:"title"`
	Body     string  `json:"body,omitempty"`
	Fields   []Field `json:"fields,omitempty"`
	ImageURL string  `json:"imageUrl,omitempty"`
	Color    int     `json:"color,omitempty"`
}

// Field is a labeled value on a card.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// TextReply wraps plain text as a single-reply slice.
func TextReply(text string) []Reply {
	return []Reply{{Text: text}}
}

// CardReply wraps a card as a single-reply slice.
func CardReply(card Card) []Reply {
	return []Reply{{Card: &card}}
}
