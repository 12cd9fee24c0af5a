package domain

// PreviewRequest is handed to the preview-processing collaborator once a submission is accepted.
type PreviewRequest struct {
	URL       string `json:"url"`
	Email     string `json:"email"`
	VideoID   string `json:"videoId"`
	ClientIP  string `json:"clientIp"`
	UserAgent string `json:"userAgent"`
}

// PreviewResult is the collaborator's answer.
type PreviewResult struct {
	PreviewID         string
	SuggestedPriceUSD *float64
}
