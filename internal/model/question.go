package model

// QuestionGenerateRequest asks for clarifying questions about a business idea
type QuestionGenerateRequest struct {
	BusinessIdea       string   `json:"businessIdea" validate:"required,min=10,max=2000"`
	ExistingCategories []string `json:"existingCategories" validate:"omitempty,max=10"`
	Count              int      `json:"count" validate:"omitempty,min=1,max=8"`
}

// QuestionOption is one multiple-choice answer for a smart question
type QuestionOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SmartQuestion is an AI-generated clarifying question. Field names follow the
// provider contract consumed by the frontend questionnaire.
type SmartQuestion struct {
	ID               string           `json:"id"`
	Question         string           `json:"question"`
	WhyImportant     string           `json:"why_important"`
	Category         string           `json:"category"`
	MECEDimension    string           `json:"mece_dimension"`
	Options          []QuestionOption `json:"options"`
	AllowCustomInput bool             `json:"allow_custom_input"`
	ExampleAnswer    string           `json:"example_answer,omitempty"`
}

// QuestionGenerateResponse carries the generated questions
type QuestionGenerateResponse struct {
	Questions []SmartQuestion `json:"questions"`
}
