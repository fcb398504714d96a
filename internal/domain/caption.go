package domain

// CaptionSuggestion is a caption candidate with the model's rationale.
type CaptionSuggestion struct {
	Text        string `json:"text"`
	Explanation string `json:"explanation"`
}
