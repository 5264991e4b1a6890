package models

// Suggestion is one (name hint, quantity) pair proposed by the Fruit Guru
type Suggestion struct {
	FruitName string `json:"fruitName"`
	Quantity  int    `json:"quantity"`
}

// Recommendation is the parsed answer of the recommendation backend
// Example: {"guruMessage": "Citrus for the sprint!", "recommendations": [{"fruitName": "Orange", "quantity": 12}]}
type Recommendation struct {
	Message     string       `json:"guruMessage"`
	Suggestions []Suggestion `json:"recommendations"`
}

// RecommendationRequest represents the request body for POST /api/recommendation
type RecommendationRequest struct {
	TeamSize int    `json:"teamSize,omitempty"`
	Mood     string `json:"mood,omitempty"`
}

// RecommendationResponse represents the response for POST /api/recommendation
type RecommendationResponse struct {
	Message string         `json:"guruMessage"`
	Box     map[string]int `json:"box"`
	Applied bool           `json:"applied"` // False when the result arrived after the box changed
}
