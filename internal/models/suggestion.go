package models

type SuggestRequest struct {
	Theme      Theme      `json:"theme" validate:"omitempty,oneof=default minecraft candyland superhero dinosaur"`
	GradeLevel string     `json:"grade_level" validate:"max=40"`
	Difficulty Difficulty `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Count      int        `json:"count" validate:"min=0,max=20"`
}

// Suggestion is one candidate secret message that fits its tier's cipher.
type Suggestion struct {
	Message       string `json:"message"`
	DistinctCount int    `json:"distinct_letters"`
}

type SuggestResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
	Rejected    int          `json:"rejected"`
	Model       string       `json:"model"`
}
